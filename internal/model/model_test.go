package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMinor_String(t *testing.T) {
	t.Parallel()

	cases := map[Minor]string{
		0:     "RM 0.00",
		300:   "RM 3.00",
		5000:  "RM 50.00",
		1234:  "RM 12.34",
		7:     "RM 0.07",
		-250:  "RM -2.50",
		99999: "RM 999.99",
	}
	for in, want := range cases {
		require.Equal(t, want, in.String(), "amount %d", int64(in))
	}
}

func TestParseMinor(t *testing.T) {
	t.Parallel()

	ok := map[string]Minor{
		"12.34":    1234,
		"12.5":     1250,
		"12":       1200,
		"RM 50.00": 5000,
		".75":      75,
		"-3":       -300,
	}
	for in, want := range ok {
		got, err := ParseMinor(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "RM", "1.234", "1.", "abc", "1.x", "-", ".",
		"1.-5", "1.+5", "--3", "-+3", "+3", "1 .5", "1_000"} {
		_, err := ParseMinor(bad)
		require.Error(t, err, bad)
	}
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	r, ok := ParseRole(" Admin ")
	require.True(t, ok)
	require.Equal(t, RoleAdmin, r)

	_, ok = ParseRole("janitor")
	require.False(t, ok)
}

func TestParseStatus_AndTerminal(t *testing.T) {
	t.Parallel()

	s, err := ParseStatus("lost")
	require.NoError(t, err)
	require.Equal(t, StatusLosted, s)

	s, err = ParseStatus("RETURNED")
	require.NoError(t, err)
	require.Equal(t, StatusReturned, s)

	_, err = ParseStatus("stolen")
	require.Error(t, err)

	require.False(t, StatusBorrowed.Terminal())
	require.True(t, StatusReturned.Terminal())
	require.True(t, StatusLosted.Terminal())
}

func TestRemainingLabel(t *testing.T) {
	t.Parallel()

	overdue, due := -3, 2
	require.Equal(t, "Returned", RemainingLabel(nil))
	require.Equal(t, "3 Days Overdue", RemainingLabel(&overdue))
	require.Equal(t, "2 Day", RemainingLabel(&due))
}

func TestBorrowRecord_DecodesReturnedRecord(t *testing.T) {
	t.Parallel()

	raw := `{"id":"b1","book":{"title":"Dune","author":"Herbert","price":5000},
		"borrowDate":"2025-05-01","dueDate":"2025-05-15","returnDate":"2025-05-18",
		"remainingDay":null,"status":"Returned","fine":300}`
	var rec BorrowRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	require.Equal(t, StatusReturned, rec.Status)
	require.Nil(t, rec.RemainingDay)
	require.NotNil(t, rec.ReturnDate)
	require.Equal(t, Minor(300), rec.Fine)
	require.Equal(t, Minor(5000), rec.Book.Price)
}

func TestPageRequest_Normalize(t *testing.T) {
	t.Parallel()

	p := PageRequest{Search: "go"}.Normalize()
	require.Equal(t, 1, p.PageNum)
	require.Equal(t, 10, p.PageSize)

	p = PageRequest{PageNum: 3, PageSize: 50}.Normalize()
	require.Equal(t, 3, p.PageNum)
	require.Equal(t, 50, p.PageSize)
}
