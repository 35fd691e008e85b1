// Package feed assembles RSS feeds from content documents.
package feed

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eringen/pubcontent/content"
)

// ContentType is the MIME type the feed body is served with.
const ContentType = "text/xml"

// DefaultSections are the path markers of publishable documents.
var DefaultSections = []string{"posts", "snippets"}

// ErrMalformedDocument signals a document that cannot become a feed entry.
var ErrMalformedDocument = errors.New("malformed document")

// MalformedDocumentError names the document and the missing field.
type MalformedDocumentError struct {
	Path  string
	ID    any
	Field string
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("%s: path %q (id %v) has no %s", ErrMalformedDocument.Error(), e.Path, e.ID, e.Field)
}

// Is matches ErrMalformedDocument.
func (e *MalformedDocumentError) Is(target error) bool { return target == ErrMalformedDocument }

// Channel describes the feed itself.
type Channel struct {
	Title       string
	SiteURL     string
	FeedURL     string
	Description string
	Language    string
}

// Entry is the syndication view of one document.
type Entry struct {
	Title       string
	URL         string
	GUID        string
	Description string
	Categories  []string
	Published   time.Time
	Language    string
}

// Feed is a serialized feed ready to be written by a transport.
type Feed struct {
	Body        []byte
	ContentType string
	Entries     []Entry
	// Skipped holds the documents left out because they were malformed.
	Skipped []*MalformedDocumentError
}

// Assembler turns ordered documents into a feed.
type Assembler struct {
	sections  []string
	generator string
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithSections replaces DefaultSections. Empty markers are ignored.
func WithSections(sections ...string) Option {
	return func(a *Assembler) {
		a.sections = a.sections[:0:0]
		for _, s := range sections {
			if s = strings.TrimSpace(s); s != "" {
				a.sections = append(a.sections, s)
			}
		}
	}
}

// WithLogger sets the logger skipped documents are reported to.
func WithLogger(l *zap.Logger) Option {
	return func(a *Assembler) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithGenerator sets the channel generator string.
func WithGenerator(g string) Option {
	return func(a *Assembler) { a.generator = g }
}

// WithClock sets the clock used for lastBuildDate.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

// NewAssembler creates an Assembler.
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		sections:  append([]string(nil), DefaultSections...),
		generator: "pubcontent",
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Build serializes docs into a feed. docs must already be filtered and ordered
// by the caller; entries keep that order exactly. Documents outside the
// publishable sections are dropped. Malformed documents are skipped and
// reported in Feed.Skipped without failing the feed.
func (a *Assembler) Build(ch Channel, docs []content.Document) (*Feed, error) {
	if strings.TrimSpace(ch.Title) == "" {
		return nil, errors.New("feed: channel title is required")
	}
	if strings.TrimSpace(ch.SiteURL) == "" {
		return nil, errors.New("feed: channel site URL is required")
	}

	f := &Feed{ContentType: ContentType, Entries: make([]Entry, 0, len(docs))}
	for _, doc := range docs {
		path := doc.Path()
		if path == "" {
			f.Skipped = append(f.Skipped, a.skip(doc, content.FieldPath))
			continue
		}
		if !a.publishable(path) {
			continue
		}
		if strings.TrimSpace(doc.Title()) == "" {
			f.Skipped = append(f.Skipped, a.skip(doc, content.FieldTitle))
			continue
		}
		f.Entries = append(f.Entries, a.entry(ch, doc))
	}

	body, err := encodeRSS(ch, f.Entries, a.now(), a.generator)
	if err != nil {
		return nil, fmt.Errorf("feed: encode: %w", err)
	}
	f.Body = body
	return f, nil
}

func (a *Assembler) publishable(path string) bool {
	for _, s := range a.sections {
		if strings.Contains(path, s) {
			return true
		}
	}
	return false
}

func (a *Assembler) skip(doc content.Document, field string) *MalformedDocumentError {
	err := &MalformedDocumentError{Path: doc.Path(), ID: doc.ID(), Field: field}
	a.logger.Warn("skipping feed document", zap.Error(err))
	return err
}

func (a *Assembler) entry(ch Channel, doc content.Document) Entry {
	link := AbsoluteURL(ch.SiteURL, doc.Path())
	published, ok := doc.Time(content.FieldDate)
	if !ok {
		published, _ = doc.Time(content.FieldLastUpdated)
	}
	return Entry{
		Title:       doc.Title(),
		URL:         link,
		GUID:        link,
		Description: doc.Description(),
		Categories:  doc.Strings(content.FieldCategory),
		Published:   published,
		Language:    ch.Language,
	}
}

// AbsoluteURL joins a site base URL and a document path with exactly one
// slash between them.
func AbsoluteURL(base, path string) string {
	base = strings.TrimRight(base, "/")
	if path == "" {
		return base
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}
