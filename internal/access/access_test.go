package access

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/libdesk/internal/model"
)

func paths(items []MenuItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Path)
	}
	return out
}

func TestResolve(t *testing.T) {
	t.Parallel()

	admin := Resolve(model.RoleAdmin)
	require.True(t, admin.DeleteBooks)
	require.True(t, admin.SettleLoans)
	require.False(t, admin.Borrow)

	lib := Resolve(model.RoleLibrarian)
	require.True(t, lib.ManageBooks)
	require.True(t, lib.SettleLoans)
	require.False(t, lib.DeleteBooks)
	require.False(t, lib.RegisterUsers)

	st := Resolve(model.RoleStudent)
	require.True(t, st.Borrow)
	require.True(t, st.StudentScopedFeeds)
	require.False(t, st.SettleLoans)

	require.Equal(t, Capabilities{}, Resolve(model.Role("guest")))
}

func TestMenu(t *testing.T) {
	t.Parallel()

	require.Equal(t,
		[]string{"/dashboard", "/book", "/borrowed-book", "/students", "/staff", "/register-user", "/add-book"},
		paths(Menu(model.RoleAdmin)))
	require.Equal(t,
		[]string{"/dashboard", "/book", "/borrowed-book", "/students", "/add-book"},
		paths(Menu(model.RoleLibrarian)))
	require.Equal(t,
		[]string{"/dashboard", "/book", "/return-book"},
		paths(Menu(model.RoleStudent)))
	require.Equal(t, []string{"/dashboard", "/book"}, paths(Menu("")))
}
