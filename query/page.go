package query

import (
	"context"
	"fmt"

	"github.com/eringen/pubcontent/content"
)

// Page is one page of a listing.
type Page struct {
	Items   []content.Document
	Number  int
	PerPage int
	HasNext bool
}

// FetchPage returns the 1-based page of the listing FetchMany would produce
// for the same arguments. opts.Skip and opts.Limit are replaced by the page
// window. One extra document is requested to learn whether a next page exists.
func (c *Composer) FetchPage(ctx context.Context, source string, filter content.Filter, page, perPage int, opts FetchOptions) (Page, error) {
	if page < 1 {
		return Page{}, fmt.Errorf("query: fetch page: %w: page must be at least 1, got %d", content.ErrInvalidSpec, page)
	}
	if perPage < 1 {
		return Page{}, fmt.Errorf("query: fetch page: %w: per page must be at least 1, got %d", content.ErrInvalidSpec, perPage)
	}
	opts.Skip = (page - 1) * perPage
	opts.Limit = perPage + 1

	docs, err := c.FetchMany(ctx, source, filter, opts)
	if err != nil {
		return Page{}, err
	}
	p := Page{Number: page, PerPage: perPage}
	if len(docs) > perPage {
		p.HasNext = true
		docs = docs[:perPage]
	}
	p.Items = docs
	return p, nil
}
