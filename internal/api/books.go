package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/and161185/libdesk/internal/model"
)

// ListBooks searches the catalogue.
func (c *Client) ListBooks(ctx context.Context, req model.PageRequest) (model.Page[model.Book], error) {
	var page model.Page[model.Book]
	in := req.Normalize()
	in.Roles, in.Statuses = nil, nil
	err := c.do(ctx, http.MethodPost, "/book/listBook", true, in, &page)
	return page, err
}

// GetBook fetches one catalogue entry.
func (c *Client) GetBook(ctx context.Context, id string) (model.Book, error) {
	var b model.Book
	err := c.do(ctx, http.MethodGet, "/book/"+url.PathEscape(id), true, nil, &b)
	return b, err
}

// UpdateBook replaces the editable fields of a book and returns the stored version.
func (c *Client) UpdateBook(ctx context.Context, id string, b model.Book) (model.Book, error) {
	b.ID = ""
	var out model.Book
	err := c.do(ctx, http.MethodPut, "/book/"+url.PathEscape(id), true, b, &out)
	return out, err
}

// DeleteBook removes a book.
func (c *Client) DeleteBook(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/book/"+url.PathEscape(id), true, nil, nil)
}

// AddBooks creates several books in one request.
func (c *Client) AddBooks(ctx context.Context, books []model.Book) error {
	return c.do(ctx, http.MethodPost, "/book/addManyBook", true, books, nil)
}
