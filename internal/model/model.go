// Package model defines domain entities exchanged with the library backend.
package model

import (
	"fmt"
	"strings"
)

// Role is the account role reported by the backend at login.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleLibrarian Role = "librarian"
	RoleStudent   Role = "student"
)

// ParseRole normalises s; unknown values come back as an invalid Role and false.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleLibrarian, RoleStudent:
		return true
	}
	return false
}

// Identity describes the signed-in user.
type Identity struct {
	UserID string `json:"id"`
	Role   Role   `json:"role"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Tokens is the credential pair issued at login.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// BorrowStatus is the lifecycle state of a borrow record.
type BorrowStatus string

const (
	StatusBorrowed BorrowStatus = "Borrowed"
	StatusReturned BorrowStatus = "Returned"
	StatusLosted   BorrowStatus = "Losted"
)

// ParseStatus accepts the wire spelling case-insensitively, plus "lost" for Losted.
func ParseStatus(s string) (BorrowStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "borrowed":
		return StatusBorrowed, nil
	case "returned":
		return StatusReturned, nil
	case "losted", "lost":
		return StatusLosted, nil
	}
	return "", fmt.Errorf("unknown borrow status %q", s)
}

// Terminal reports whether no further transition is allowed from s.
func (s BorrowStatus) Terminal() bool {
	return s == StatusReturned || s == StatusLosted
}

// Book is a catalogue entry.
type Book struct {
	ID            string `json:"id,omitempty"`
	Title         string `json:"bookTitle"`
	Author        string `json:"bookAuthor"`
	Price         Minor  `json:"price"`
	BarcodeNo     string `json:"barcodeNo,omitempty"`
	PublishedYear int    `json:"published_year,omitempty"`
	ImageURL      string `json:"imageUrl,omitempty"`
	Quantity      int    `json:"quantity"`
}

// User is a library account (student or staff).
type User struct {
	ID              string `json:"id,omitempty"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Role            Role   `json:"role,omitempty"`
	Status          string `json:"status,omitempty"`
	MatricOrStaffNo string `json:"matricOrStaffNo,omitempty"`
	ImageURL        string `json:"imageUrl,omitempty"`
}

// NewUser is the registration payload.
type NewUser struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	Role            Role   `json:"role"`
	MatricOrStaffNo string `json:"matricOrStaffNo,omitempty"`
}

// LoanBook is the book summary embedded in a borrow record.
type LoanBook struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Price    Minor  `json:"price"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// BorrowRecord is a single loan transaction.
type BorrowRecord struct {
	ID           string       `json:"id"`
	Book         LoanBook     `json:"book"`
	User         *User        `json:"user,omitempty"`
	BorrowDate   string       `json:"borrowDate"`
	DueDate      string       `json:"dueDate"`
	ReturnDate   *string      `json:"returnDate"`
	RemainingDay *int         `json:"remainingDay"`
	Status       BorrowStatus `json:"status"`
	Fine         Minor        `json:"fine"`
}

// PageRequest is the search/pagination body accepted by list endpoints.
type PageRequest struct {
	Search   string         `json:"search"`
	PageNum  int            `json:"pageNum"`
	PageSize int            `json:"pageSize"`
	Roles    []Role         `json:"roles,omitempty"`
	Statuses []BorrowStatus `json:"statuses,omitempty"`
}

// Normalize fills the defaults the list pages start from.
func (p PageRequest) Normalize() PageRequest {
	if p.PageNum < 1 {
		p.PageNum = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 10
	}
	return p
}

// Page is the pagination envelope returned by list endpoints.
type Page[T any] struct {
	StartRecord int  `json:"startRecord"`
	EndRecord   int  `json:"endRecord"`
	NextPage    *int `json:"nextPage"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"totalPages"`
	Data        []T  `json:"data"`
}

// Summary holds the dashboard counters.
type Summary struct {
	NewBooks       int `json:"newBooks"`
	LostBooks      int `json:"lostBooks"`
	BorrowedBooks  int `json:"borrowedBooks"`
	AvailableBooks int `json:"availableBooks"`
}

// TrendingBook is an entry of the trending widget.
type TrendingBook struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	BorrowCount int    `json:"borrowCount"`
}

// Activity is an entry of the recent activity widget.
type Activity struct {
	ID           string `json:"id"`
	BorrowDate   string `json:"borrowDate"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	BorrowerName string `json:"borrowerName"`
}

// DueEntry is an entry of the incoming due dates widget.
type DueEntry struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	DueDate      string `json:"dueDate"`
	BorrowerName string `json:"borrowerName"`
	RemainingDay int    `json:"remainingDay"`
}

// RemainingLabel renders remaining days the way the loan tables do.
func RemainingLabel(remaining *int) string {
	switch {
	case remaining == nil:
		return "Returned"
	case *remaining < 0:
		return fmt.Sprintf("%d Days Overdue", -*remaining)
	default:
		return fmt.Sprintf("%d Day", *remaining)
	}
}

// BorrowReceipt is what the backend returns after a successful borrow.
type BorrowReceipt struct {
	ID                     string       `json:"id"`
	Book                   Book         `json:"book"`
	DueDate                string       `json:"dueDate"`
	Status                 BorrowStatus `json:"status"`
	RemainingBookCanBorrow int          `json:"remainingBookCanBorrow"`
}
