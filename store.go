package pubcontent

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/eringen/pubcontent/content"
	"github.com/eringen/pubcontent/fsstore"
	"github.com/eringen/pubcontent/sqlitestore"
)

// OpenStore opens the content store selected by cfg.Backend. The returned
// closer is nil when the store holds no resources.
func OpenStore(cfg SiteConfig, logger *zap.Logger) (content.Store, io.Closer, error) {
	switch cfg.Backend {
	case BackendFS:
		opts := []fsstore.Option{
			fsstore.WithReloadInterval(cfg.ReloadInterval),
			fsstore.WithLogger(logger),
		}
		if cfg.SchemaPath != "" {
			opts = append(opts, fsstore.WithSchema(cfg.SchemaPath))
		}
		s, err := fsstore.Open(cfg.ContentDir, opts...)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	case BackendSQLite:
		s, err := sqlitestore.NewStore(cfg.IndexPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open index %s: %w", cfg.IndexPath, err)
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
