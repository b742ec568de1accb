package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/and161185/libdesk/internal/model"
)

// Borrow lends bookID to studentID.
func (c *Client) Borrow(ctx context.Context, studentID, bookID string) (model.BorrowReceipt, error) {
	in := struct {
		StudentID string `json:"studentId"`
		BookID    string `json:"bookId"`
	}{studentID, bookID}
	var out model.BorrowReceipt
	err := c.do(ctx, http.MethodPost, "/borrowedBook/borrow", true, in, &out)
	return out, err
}

// Return settles a loan with the given terminal status and fine, returning the updated record.
func (c *Client) Return(ctx context.Context, recordID string, status model.BorrowStatus, fine model.Minor) (model.BorrowRecord, error) {
	in := struct {
		BorrowedBookID string             `json:"borrowedBookId"`
		Status         model.BorrowStatus `json:"status"`
		Fine           model.Minor        `json:"fine"`
	}{recordID, status, fine}
	var out model.BorrowRecord
	err := c.do(ctx, http.MethodPost, "/borrowedBook/return", true, in, &out)
	return out, err
}

// Transaction fetches one borrow record.
func (c *Client) Transaction(ctx context.Context, id string) (model.BorrowRecord, error) {
	var out model.BorrowRecord
	err := c.do(ctx, http.MethodGet, "/borrowedBook/transactions/"+url.PathEscape(id), true, nil, &out)
	return out, err
}

// Loans lists borrow records visible to the caller; req.Statuses narrows the result.
func (c *Client) Loans(ctx context.Context, req model.PageRequest) (model.Page[model.BorrowRecord], error) {
	var page model.Page[model.BorrowRecord]
	in := req.Normalize()
	in.Roles = nil
	err := c.do(ctx, http.MethodPost, "/borrowedBook/student", true, in, &page)
	return page, err
}
