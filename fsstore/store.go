// Package fsstore serves a content collection read from a directory of
// Markdown, YAML and JSON files.
//
// Files are parsed into an immutable in-memory snapshot. The snapshot is
// loaded lazily on first query and, when a reload interval is set, rebuilt
// once it grows older than that interval.
package fsstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/eringen/pubcontent/content"
)

// Store is a content.Store backed by files under a root directory. Its natural
// enumeration order is lexical file path order.
type Store struct {
	root       string
	reload     time.Duration
	workers    int
	schemaPath string
	schema     *gojsonschema.Schema
	logger     *zap.Logger

	mu     sync.RWMutex
	docs   []content.Document
	loaded time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithReloadInterval rebuilds the snapshot on the first query after d has
// elapsed. Zero loads the directory once.
func WithReloadInterval(d time.Duration) Option {
	return func(s *Store) { s.reload = d }
}

// WithWorkers bounds the number of files parsed concurrently.
func WithWorkers(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithSchema validates every file's metadata against the JSON schema at path.
func WithSchema(path string) Option {
	return func(s *Store) { s.schemaPath = path }
}

// WithLogger sets the logger used for load diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open creates a Store over root. The directory is not read until the first
// query or an explicit Load.
func Open(root string, opts ...Option) (*Store, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("fsstore: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fsstore: %s is not a directory", root)
	}
	s := &Store{
		root:    root,
		workers: runtime.GOMAXPROCS(0),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.schemaPath != "" {
		data, err := os.ReadFile(filepath.Clean(s.schemaPath))
		if err != nil {
			return nil, fmt.Errorf("fsstore: read schema: %w", err)
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			return nil, fmt.Errorf("fsstore: compile schema: %w", err)
		}
		s.schema = schema
	}
	return s, nil
}

func (s *Store) valid() bool {
	if s.docs == nil {
		return false
	}
	return s.reload <= 0 || time.Since(s.loaded) < s.reload
}

// snapshot returns the current documents, loading them if needed.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (s *Store) snapshot(ctx context.Context) ([]content.Document, error) {
	s.mu.RLock()
	if s.valid() {
		docs := s.docs
		s.mu.RUnlock()
		return docs, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.valid() {
		return s.docs, nil
	}
	docs, err := s.load(ctx)
	if err != nil {
		return nil, content.Unavailable("load", err)
	}
	s.docs = docs
	s.loaded = time.Now()
	return docs, nil
}

// Load forces a fresh read of the content directory.
func (s *Store) Load(ctx context.Context) error {
	docs, err := s.load(ctx)
	if err != nil {
		return content.Unavailable("load", err)
	}
	s.mu.Lock()
	s.docs = docs
	s.loaded = time.Now()
	s.mu.Unlock()
	return nil
}

// All returns every document in natural order.
func (s *Store) All(ctx context.Context) ([]content.Document, error) {
	docs, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return append([]content.Document(nil), docs...), nil
}

// Find implements content.Store.
func (s *Store) Find(ctx context.Context, spec content.Spec) ([]content.Document, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	docs, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return content.Apply(docs, spec), nil
}

// FindOne implements content.Store.
func (s *Store) FindOne(ctx context.Context, spec content.Spec) (content.Document, bool, error) {
	if err := spec.Validate(); err != nil {
		return nil, false, err
	}
	docs, err := s.snapshot(ctx)
	if err != nil {
		return nil, false, err
	}
	doc, ok := content.ApplyOne(docs, spec)
	return doc, ok, nil
}

// load walks the root and parses every content file on a bounded worker
// pool. Results keep walk order regardless of completion order.
func (s *Store) load(ctx context.Context) ([]content.Document, error) {
	start := time.Now()
	var files []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if p != s.root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !supported(strings.ToLower(filepath.Ext(name))) {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.root, err)
	}

	pool, err := ants.NewPool(s.workers, ants.WithPanicHandler(func(v any) {
		s.logger.Error("content parser panic", zap.Any("panic", v))
	}))
	if err != nil {
		return nil, fmt.Errorf("create parser pool: %w", err)
	}
	defer pool.Release()

	docs := make([]content.Document, len(files))
	errs := make([]error, len(files))
	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			docs[i], errs[i] = s.readDocument(file)
		}); err != nil {
			wg.Done()
			errs[i] = fmt.Errorf("%s: %w", file, err)
		}
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	for i, doc := range docs {
		if doc == nil {
			return nil, fmt.Errorf("%s: parser did not complete", files[i])
		}
	}
	s.logger.Info("content loaded",
		zap.String("root", s.root),
		zap.Int("documents", len(docs)),
		zap.Duration("took", time.Since(start)),
	)
	return docs, nil
}

func (s *Store) readDocument(file string) (content.Document, error) {
	rel, err := filepath.Rel(s.root, file)
	if err != nil {
		return nil, err
	}
	rel = filepath.ToSlash(rel)

	data, err := os.ReadFile(filepath.Clean(file))
	if err != nil {
		return nil, err
	}
	ext := strings.ToLower(path.Ext(rel))
	fields, err := parseFile(ext, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rel, err)
	}
	if err := s.validate(fields); err != nil {
		return nil, fmt.Errorf("%s: %w", rel, err)
	}

	docPath, partial := derivePath(rel)
	doc := content.Document(fields)
	doc[content.FieldPath] = docPath
	doc[content.FieldPartial] = partial
	doc[FieldFile] = rel
	doc[FieldExtension] = strings.TrimPrefix(ext, ".")
	doc[FieldDir] = path.Base(path.Dir(docPath))
	return doc, nil
}

func (s *Store) validate(fields map[string]any) error {
	if s.schema == nil {
		return nil
	}
	meta := make(map[string]any, len(fields))
	for k, v := range fields {
		if k != content.FieldBody {
			meta[k] = v
		}
	}
	res, err := s.schema.Validate(gojsonschema.NewGoLoader(meta))
	if err != nil {
		return fmt.Errorf("validate metadata: %w", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("metadata does not match schema: %s", strings.Join(msgs, "; "))
}
