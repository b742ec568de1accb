package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/libdesk/internal/model"
)

func withTmpConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, k := range []string{
		"LIBDESK_STORE", "LIBDESK_PROFILE", "LIBDESK_STORE_DIR", "LIBDESK_PASSPHRASE", "LIBDESK_CA_CERT",
		"LIBDESK_WARN_THRESHOLD", "LIBDESK_INACTIVITY_TIMEOUT", "LIBDESK_CHECK_INTERVAL",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("LIBDESK_LOG_LEVEL", "error")
	return filepath.Join(dir, "libdesk")
}

type backend struct {
	t   *testing.T
	srv *httptest.Server

	mu           sync.Mutex
	issued       map[string]model.Identity
	returns      []map[string]any
	refreshes    int
	trendingDown bool
}

var accounts = map[string]model.Identity{
	"siti@lib.my": {UserID: "u-1", Role: model.RoleLibrarian, Email: "siti@lib.my", Name: "Siti"},
	"ali@lib.my":  {UserID: "s-9", Role: model.RoleStudent, Email: "ali@lib.my", Name: "Ali"},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{t: t, issued: map[string]model.Identity{}}
	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in struct{ Email, Password string }
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		id, ok := accounts[in.Email]
		if !ok || in.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password"})
			return
		}
		tok := b.mint(id)
		writeJSON(w, http.StatusOK, map[string]string{
			"accessToken": tok, "refreshToken": "r-" + id.UserID,
			"role": string(id.Role), "email": id.Email, "name": id.Name, "id": id.UserID,
		})
	})
	r.Post("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			RefreshToken string `json:"refreshToken"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		for _, id := range accounts {
			if "r-"+id.UserID == in.RefreshToken {
				b.mu.Lock()
				b.refreshes++
				b.mu.Unlock()
				writeJSON(w, http.StatusOK, map[string]string{"accessToken": b.mint(id)})
				return
			}
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid refresh token"})
	})
	r.Post("/auth/verify", func(w http.ResponseWriter, r *http.Request) {
		_, ok := b.identity(r)
		writeJSON(w, http.StatusOK, map[string]bool{"valid": ok})
	})
	r.Get("/borrowedBook/transactions/{id}", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := b.identity(r); !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
			return
		}
		remaining := -3
		writeJSON(w, http.StatusOK, model.BorrowRecord{
			ID:           chi.URLParam(r, "id"),
			Book:         model.LoanBook{Title: "Dune", Author: "Herbert", Price: 5000},
			User:         &model.User{Name: "Ali"},
			BorrowDate:   "2026-09-20",
			DueDate:      "2026-10-04",
			RemainingDay: &remaining,
			Status:       model.StatusBorrowed,
		})
	})
	r.Post("/borrowedBook/return", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		b.mu.Lock()
		b.returns = append(b.returns, in)
		b.mu.Unlock()
		ret := "2026-10-18"
		writeJSON(w, http.StatusOK, model.BorrowRecord{
			ID:         in["borrowedBookId"].(string),
			Book:       model.LoanBook{Title: "Dune", Author: "Herbert", Price: 5000},
			ReturnDate: &ret,
			Status:     model.BorrowStatus(in["status"].(string)),
			Fine:       model.Minor(in["fine"].(float64)),
		})
	})
	r.Post("/book/listBook", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, model.Page[model.Book]{
			StartRecord: 1, EndRecord: 1, Total: 1, TotalPages: 1,
			Data: []model.Book{{ID: "b1", Title: "Dune", Author: "Herbert", Price: 4590, Quantity: 2}},
		})
	})
	r.Get("/borrowedBook/dashboard", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, model.Summary{NewBooks: 3, BorrowedBooks: 7, LostBooks: 1, AvailableBooks: 40})
	})
	r.Get("/borrowedBook/trending-book", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		down := b.trendingDown
		b.mu.Unlock()
		if down {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "trending down"})
			return
		}
		writeJSON(w, http.StatusOK, []model.TrendingBook{{ID: "b1", Title: "Dune", Author: "Herbert", BorrowCount: 12}})
	})
	r.Get("/borrowedBook/recent-activity", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []model.Activity{{ID: "l1", BorrowDate: "2026-10-01", Title: "Emma", BorrowerName: "Ali"}})
	})
	r.Get("/borrowedBook/incoming-due", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []model.DueEntry{{ID: "l2", Title: "Ulysses", DueDate: "2026-10-20", BorrowerName: "Ali", RemainingDay: 2}})
	})
	b.srv = httptest.NewServer(r)
	t.Cleanup(b.srv.Close)
	t.Setenv("LIBDESK_API_URL", b.srv.URL)
	return b
}

func (b *backend) mint(id model.Identity) string {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   id.UserID + ":" + time.Now().String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("k"))
	require.NoError(b.t, err)
	b.mu.Lock()
	b.issued[tok] = id
	b.mu.Unlock()
	return tok
}

func (b *backend) refreshCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshes
}

func (b *backend) identity(r *http.Request) (model.Identity, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.issued[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
	return id, ok
}

func (b *backend) returnCalls() []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]map[string]any(nil), b.returns...)
}

type result struct {
	code   int
	stdout string
	stderr string
}

func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	code := execute(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return result{code, out.String(), errOut.String()}
}

func login(t *testing.T, email string) {
	t.Helper()
	res := run(t, "secret\n", "login", "--email", email)
	require.Equal(t, 0, res.code, res.stderr)
}

func Test_version(t *testing.T) {
	_ = withTmpConfig(t)
	res := run(t, "", "version")
	require.Equal(t, 0, res.code)
	require.Equal(t, "lib dev (unknown)\n", res.stdout)
}

func Test_loginWhoamiLogout(t *testing.T) {
	base := withTmpConfig(t)
	_ = newBackend(t)

	res := run(t, "secret\n", "login", "--email", "siti@lib.my")
	require.Equal(t, 0, res.code, res.stderr)
	require.Equal(t, "Signed in as Siti (librarian)\n", res.stdout)

	raw, err := os.ReadFile(filepath.Join(base, "default.json"))
	require.NoError(t, err)
	var stored map[string]string
	require.NoError(t, json.Unmarshal(raw, &stored))
	require.Len(t, stored, 6)
	require.Equal(t, "u-1", stored["id"])
	require.Equal(t, "r-u-1", stored["refreshToken"])

	res = run(t, "", "whoami")
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, "Siti <siti@lib.my>")
	require.Contains(t, res.stdout, "/borrowed-book")
	require.NotContains(t, res.stdout, "/staff")

	res = run(t, "", "--json", "whoami")
	require.Equal(t, 0, res.code, res.stderr)
	var who whoami
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &who))
	require.True(t, who.Caps.SettleLoans)
	require.False(t, who.Caps.DeleteBooks)

	res = run(t, "", "logout")
	require.Equal(t, 0, res.code, res.stderr)
	_, err = os.Stat(filepath.Join(base, "default.json"))
	require.True(t, os.IsNotExist(err))

	res = run(t, "", "whoami")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, "not authenticated")
}

func Test_login_InvalidCredentials(t *testing.T) {
	base := withTmpConfig(t)
	_ = newBackend(t)

	res := run(t, "wrong\n", "login", "--email", "siti@lib.my")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, "error: Invalid email or password")
	_, err := os.Stat(filepath.Join(base, "default.json"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(base, "default.signin.json"))
	require.NoError(t, err, "failures are counted outside the session file")
}

func Test_login_LockedAfterRepeatedFailures(t *testing.T) {
	_ = withTmpConfig(t)
	_ = newBackend(t)

	for i := 0; i < throttleMaxFails; i++ {
		res := run(t, "wrong\n", "login", "--email", "siti@lib.my")
		require.Equal(t, 1, res.code)
	}
	res := run(t, "secret\n", "login", "--email", "siti@lib.my")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, "too many failed sign-in attempts")

	// other accounts are unaffected
	login(t, "ali@lib.my")
}

func Test_loanReturn_ConfirmsFine(t *testing.T) {
	_ = withTmpConfig(t)
	b := newBackend(t)
	login(t, "siti@lib.my")

	res := run(t, "", "loan", "show", "l1")
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, "3 Days Overdue")
	require.Contains(t, res.stdout, "returned   fine RM 3.00")
	require.Contains(t, res.stdout, "losted     fine RM 50.00")

	res = run(t, "y\n", "loan", "return", "l1")
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stderr, "Returning this book late will result in a fine of RM 3.00. Are you sure? [y/N]")
	require.Contains(t, res.stdout, "Book marked as Returned")

	calls := b.returnCalls()
	require.Len(t, calls, 1)
	require.Equal(t, "Returned", calls[0]["status"])
	require.EqualValues(t, 300, calls[0]["fine"])

	res = run(t, "", "loan", "return", "l1", "--lost", "--yes")
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stderr, "RM 50.00")
	calls = b.returnCalls()
	require.Len(t, calls, 2)
	require.EqualValues(t, 5000, calls[1]["fine"])
}

func Test_loanReturn_Declined(t *testing.T) {
	_ = withTmpConfig(t)
	b := newBackend(t)
	login(t, "siti@lib.my")

	res := run(t, "n\n", "loan", "return", "l1")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, "not confirmed")
	require.Empty(t, b.returnCalls())
}

func Test_studentCannotSettle(t *testing.T) {
	_ = withTmpConfig(t)
	b := newBackend(t)
	login(t, "ali@lib.my")

	res := run(t, "", "loan", "return", "l1", "--yes")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, "may not settle loans")
	require.Empty(t, b.returnCalls())

	res = run(t, "", "book", "list")
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, "RM 45.90")
	require.Contains(t, res.stdout, "1-1 of 1")
}

func Test_dashboard_OneSectionDown(t *testing.T) {
	_ = withTmpConfig(t)
	b := newBackend(t)
	login(t, "siti@lib.my")

	res := run(t, "", "dashboard")
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, "Dune")

	b.mu.Lock()
	b.trendingDown = true
	b.mu.Unlock()

	res = run(t, "", "dashboard")
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, "New books: 3")
	require.Contains(t, res.stdout, "trending unavailable: trending down")
	require.NotContains(t, res.stdout, "Dune")
	require.Contains(t, res.stdout, "Emma")
	require.Contains(t, res.stdout, "Ulysses")

	res = run(t, "", "--json", "dashboard")
	require.Equal(t, 0, res.code, res.stderr)
	var d dashboard
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &d))
	require.Equal(t, map[string]string{sectionTrending: "trending down"}, d.Unavailable)
	require.Len(t, d.Due, 1)
}

func Test_watch_InactivityLogsOut(t *testing.T) {
	base := withTmpConfig(t)
	_ = newBackend(t)
	login(t, "siti@lib.my")

	// tokens live for an hour, so a two hour threshold warns at once
	t.Setenv("LIBDESK_WARN_THRESHOLD", "2h")
	t.Setenv("LIBDESK_INACTIVITY_TIMEOUT", "100ms")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var out, errOut bytes.Buffer
	code := execute(ctx, []string{"watch"}, strings.NewReader(""), &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	require.NoError(t, ctx.Err(), "watch should end on logout, not on the deadline")

	require.Contains(t, out.String(), "Press Enter to stay signed in")
	require.Contains(t, out.String(), "session expiring_soon")
	require.Contains(t, out.String(), "Signed out")
	_, err := os.Stat(filepath.Join(base, "default.json"))
	require.True(t, os.IsNotExist(err))
}

func Test_watch_ActivityRefreshes(t *testing.T) {
	base := withTmpConfig(t)
	b := newBackend(t)
	login(t, "siti@lib.my")
	before, err := os.ReadFile(filepath.Join(base, "default.json"))
	require.NoError(t, err)

	t.Setenv("LIBDESK_WARN_THRESHOLD", "2h")
	t.Setenv("LIBDESK_INACTIVITY_TIMEOUT", "1m")

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	var out, errOut bytes.Buffer
	code := execute(ctx, []string{"watch"}, strings.NewReader("\n"), &out, &errOut)
	require.Equal(t, 0, code, errOut.String())

	require.Equal(t, 1, b.refreshCount())
	require.Contains(t, out.String(), "session expiring_soon")
	require.Contains(t, out.String(), "session authenticated")
	require.NotContains(t, out.String(), "Signed out")

	after, err := os.ReadFile(filepath.Join(base, "default.json"))
	require.NoError(t, err)
	var was, now map[string]string
	require.NoError(t, json.Unmarshal(before, &was))
	require.NoError(t, json.Unmarshal(after, &now))
	require.NotEqual(t, was["token"], now["token"])
	require.Equal(t, was["refreshToken"], now["refreshToken"])
}

func Test_readAll_File_And_Stdin(t *testing.T) {
	t.Parallel()

	tmp := filepath.Join(t.TempDir(), "f.json")
	require.NoError(t, os.WriteFile(tmp, []byte("[]"), 0o600))
	b, err := readAll(nil, tmp)
	require.NoError(t, err)
	require.Equal(t, "[]", string(b))

	b, err = readAll(strings.NewReader("from-stdin"), "-")
	require.NoError(t, err)
	require.Equal(t, "from-stdin", string(b))
}

func Test_printJSON_WritesPretty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printJSON(&buf, map[string]any{"a": 1})
	out, _ := io.ReadAll(&buf)

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	require.Equal(t, float64(1), m["a"])
	require.Contains(t, string(out), "\n  ")
}

func Test_loadTLS_Variants(t *testing.T) {
	t.Parallel()

	c, err := loadTLS("", true)
	require.NoError(t, err)
	require.True(t, c.InsecureSkipVerify)

	c, err = loadTLS("", false)
	require.NoError(t, err)
	require.Nil(t, c)

	tmp := filepath.Join(t.TempDir(), "bad.pem")
	require.NoError(t, os.WriteFile(tmp, []byte("not pem"), 0o600))
	_, err = loadTLS(tmp, false)
	require.Error(t, err)
}
