package pubcontent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/pubcontent/content"
	"github.com/eringen/pubcontent/feed"
	"github.com/eringen/pubcontent/logger"
	"github.com/eringen/pubcontent/metrics"
	"github.com/eringen/pubcontent/query"
)

// feedOrder lists the most recently updated documents first.
var feedOrder = []content.SortKey{content.Desc(content.FieldLastUpdated)}

// publishedFilter keeps partial fragments out of site-wide queries.
var publishedFilter = content.Filter{content.Eq(content.FieldPartial, false)}

type listResponse struct {
	Items   []content.Document `json:"items"`
	Page    int                `json:"page"`
	PerPage int                `json:"per_page"`
	HasNext bool               `json:"has_next"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *App) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) handleFeed(c echo.Context) error {
	return a.cached(c, "feed", func() (CachedResponse, error) {
		f, err := a.RenderFeed(c.Request().Context())
		if err != nil {
			return CachedResponse{}, err
		}
		return CachedResponse{ContentType: f.ContentType, Body: f.Body}, nil
	})
}

// RenderFeed builds the site feed from every published, non-partial
// document, most recently updated first.
func (a *App) RenderFeed(ctx context.Context) (*feed.Feed, error) {
	docs, err := a.Composer.FetchMany(ctx, "", publishedFilter, query.FetchOptions{Sort: feedOrder})
	if err != nil {
		return nil, err
	}
	f, err := a.Feed.Build(a.channel(), docs)
	if err != nil {
		return nil, err
	}
	for _, s := range f.Skipped {
		metrics.FeedSkippedTotal.WithLabelValues(s.Field).Inc()
	}
	return f, nil
}

func (a *App) handleSitemap(c echo.Context) error {
	return a.cached(c, "sitemap", func() (CachedResponse, error) {
		docs, err := a.Composer.FetchMany(c.Request().Context(), "", publishedFilter, query.FetchOptions{
			Sort:       feedOrder,
			Projection: []string{content.FieldPath, content.FieldDate, content.FieldLastUpdated},
		})
		if err != nil {
			return CachedResponse{}, err
		}
		body, err := marshalXML(buildSitemap(a.Config.URL, docs))
		if err != nil {
			return CachedResponse{}, err
		}
		return CachedResponse{ContentType: sitemapContentType, Body: body}, nil
	})
}

// handleList serves one page of a section listing. Query parameters:
// page (1-based), per_page, category and fields (comma-separated projection).
func (a *App) handleList(c echo.Context) error {
	section := c.Param("section")
	page, err := intParam(c, "page", 1)
	if err != nil {
		return err
	}
	perPage, err := intParam(c, "per_page", a.Config.DefaultPerPage)
	if err != nil {
		return err
	}
	perPage = min(perPage, a.Config.MaxPerPage)

	var filter content.Filter
	if cats := FilterEmpty(strings.Split(c.QueryParam("category"), ",")); len(cats) > 0 {
		values := make([]any, len(cats))
		for i, cat := range cats {
			values[i] = cat
		}
		filter = append(filter, content.In(content.FieldCategory, values...))
	}
	opts := query.FetchOptions{Projection: FilterEmpty(strings.Split(c.QueryParam("fields"), ","))}

	return a.cached(c, "list", func() (CachedResponse, error) {
		p, err := a.Composer.FetchPage(c.Request().Context(), section, filter, page, perPage, opts)
		if err != nil {
			return CachedResponse{}, err
		}
		return jsonResponse(listResponse{Items: p.Items, Page: p.Number, PerPage: p.PerPage, HasNext: p.HasNext})
	})
}

// handleDoc looks a document up by its path. Drafts are hidden unless
// preview_drafts is enabled.
func (a *App) handleDoc(c echo.Context) error {
	path := "/" + strings.Trim(c.Param("*"), "/")
	return a.cached(c, "doc", func() (CachedResponse, error) {
		doc, ok, err := a.Composer.FetchOne(c.Request().Context(), "", content.Filter{content.Eq(content.FieldPath, path)})
		if err != nil {
			return CachedResponse{}, err
		}
		if !ok || doc.Partial() || (doc.Draft() && !a.Config.PreviewDrafts) {
			return CachedResponse{}, echo.NewHTTPError(http.StatusNotFound, "document not found")
		}
		return jsonResponse(doc)
	})
}

func (a *App) channel() feed.Channel {
	return feed.Channel{
		Title:       a.Config.Name,
		SiteURL:     a.Config.URL,
		FeedURL:     a.Config.FeedURL(),
		Description: a.Config.Description,
		Language:    a.Config.Language,
	}
}

// cached serves the response for the request URI from the response cache,
// rendering and storing it with build on a miss.
func (a *App) cached(c echo.Context, route string, build func() (CachedResponse, error)) error {
	key := c.Request().URL.RequestURI()
	if r, ok := a.Cache.Get(key); ok {
		metrics.ResponseCacheTotal.WithLabelValues(route, "hit").Inc()
		return c.Blob(http.StatusOK, r.ContentType, r.Body)
	}
	metrics.ResponseCacheTotal.WithLabelValues(route, "miss").Inc()
	r, err := build()
	if err != nil {
		return err
	}
	a.Cache.Add(key, r)
	return c.Blob(http.StatusOK, r.ContentType, r.Body)
}

func jsonResponse(v any) (CachedResponse, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return CachedResponse{}, err
	}
	return CachedResponse{ContentType: echo.MIMEApplicationJSONCharsetUTF8, Body: body}, nil
}

func intParam(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a positive integer")
	}
	return n, nil
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := http.StatusText(code)

	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	case errors.Is(err, content.ErrInvalidSpec):
		code = http.StatusBadRequest
		msg = err.Error()
	case errors.Is(err, content.ErrStoreUnavailable):
		code = http.StatusServiceUnavailable
		msg = "content store unavailable"
	}

	if code >= 500 {
		logger.FromContext(c.Request().Context()).Error("server error",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Int("status", code),
			zap.Error(err),
		)
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, errorResponse{Error: msg})
}
