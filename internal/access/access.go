// Package access resolves what a role may do, so callers never compare role strings themselves.
package access

import "github.com/and161185/libdesk/internal/model"

// Capabilities is the resolved permission set of a role.
type Capabilities struct {
	ManageBooks        bool // add and edit catalogue entries
	DeleteBooks        bool
	ManageStudents     bool
	ManageStaff        bool
	RegisterUsers      bool
	DeleteUsers        bool
	EditUserRole       bool
	SettleLoans        bool // mark borrowed books returned or lost
	Borrow             bool
	StudentScopedFeeds bool // dashboard feeds limited to the caller's own loans
}

// Resolve returns the capabilities of r. Unknown roles get none.
func Resolve(r model.Role) Capabilities {
	switch r {
	case model.RoleAdmin:
		return Capabilities{
			ManageBooks:    true,
			DeleteBooks:    true,
			ManageStudents: true,
			ManageStaff:    true,
			RegisterUsers:  true,
			DeleteUsers:    true,
			EditUserRole:   true,
			SettleLoans:    true,
		}
	case model.RoleLibrarian:
		return Capabilities{
			ManageBooks:    true,
			ManageStudents: true,
			EditUserRole:   true,
			SettleLoans:    true,
		}
	case model.RoleStudent:
		return Capabilities{
			Borrow:             true,
			StudentScopedFeeds: true,
		}
	}
	return Capabilities{}
}

// MenuItem is one navigation entry.
type MenuItem struct {
	Name string
	Path string
}

type menuEntry struct {
	MenuItem
	allowed func(Capabilities) bool
}

var menu = []menuEntry{
	{MenuItem{"Dashboard", "/dashboard"}, nil},
	{MenuItem{"Books", "/book"}, nil},
	{MenuItem{"Borrowed Book", "/return-book"}, func(c Capabilities) bool { return c.Borrow }},
	{MenuItem{"Borrowed Book", "/borrowed-book"}, func(c Capabilities) bool { return c.SettleLoans }},
	{MenuItem{"Students", "/students"}, func(c Capabilities) bool { return c.ManageStudents }},
	{MenuItem{"Staff", "/staff"}, func(c Capabilities) bool { return c.ManageStaff }},
	{MenuItem{"Add User", "/register-user"}, func(c Capabilities) bool { return c.RegisterUsers }},
	{MenuItem{"Add Book", "/add-book"}, func(c Capabilities) bool { return c.ManageBooks }},
}

// Menu returns the navigation entries visible to r, in display order.
func Menu(r model.Role) []MenuItem {
	caps := Resolve(r)
	out := make([]MenuItem, 0, len(menu))
	for _, e := range menu {
		if e.allowed == nil || e.allowed(caps) {
			out = append(out, e.MenuItem)
		}
	}
	return out
}
