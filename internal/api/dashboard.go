package api

import (
	"context"
	"net/http"

	"github.com/and161185/libdesk/internal/model"
)

// Summary returns the dashboard counters.
func (c *Client) Summary(ctx context.Context) (model.Summary, error) {
	var s model.Summary
	err := c.do(ctx, http.MethodGet, "/borrowedBook/dashboard", true, nil, &s)
	return s, err
}

// Trending returns the most borrowed books.
func (c *Client) Trending(ctx context.Context) ([]model.TrendingBook, error) {
	var out []model.TrendingBook
	err := c.do(ctx, http.MethodGet, "/borrowedBook/trending-book", true, nil, &out)
	return out, err
}

// RecentActivity returns the latest borrows; student limits it to the caller's own.
func (c *Client) RecentActivity(ctx context.Context, student bool) ([]model.Activity, error) {
	path := "/borrowedBook/recent-activity"
	if student {
		path += "-student"
	}
	var out []model.Activity
	err := c.do(ctx, http.MethodGet, path, true, nil, &out)
	return out, err
}

// IncomingDue returns loans nearing their due date; student limits it to the caller's own.
func (c *Client) IncomingDue(ctx context.Context, student bool) ([]model.DueEntry, error) {
	path := "/borrowedBook/incoming-due"
	if student {
		path += "-student"
	}
	var out []model.DueEntry
	err := c.do(ctx, http.MethodGet, path, true, nil, &out)
	return out, err
}
