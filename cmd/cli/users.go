package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/and161185/libdesk/internal/access"
	"github.com/and161185/libdesk/internal/model"
)

func userCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage students and staff"}
	cmd.AddCommand(userListCmd(a), userGetCmd(a), userRegisterCmd(a), userUpdateCmd(a), userDeleteCmd(a))
	return cmd
}

// canSee reports whether caps allow listing accounts of role r.
func canSee(caps access.Capabilities, r model.Role) bool {
	if r == model.RoleStudent {
		return caps.ManageStudents
	}
	return caps.ManageStaff
}

func userListCmd(a *app) *cobra.Command {
	var (
		pf   pageFlags
		role string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Search accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, caps, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			req := pf.request()
			if role != "" {
				r, ok := model.ParseRole(role)
				if !ok {
					return fmt.Errorf("unknown role %q", role)
				}
				req.Roles = []model.Role{r}
			} else {
				req.Roles = []model.Role{model.RoleStudent}
				if caps.ManageStaff {
					req.Roles = []model.Role{model.RoleAdmin, model.RoleLibrarian}
				}
			}
			for _, r := range req.Roles {
				if !canSee(caps, r) {
					return denied("list " + string(r) + " accounts")
				}
			}
			page, err := a.client.ListUsers(cmd.Context(), req)
			if err != nil {
				return err
			}
			if a.flags.json {
				printJSON(a.out, page)
				return nil
			}
			rows := make([][]string, 0, len(page.Data))
			for _, u := range page.Data {
				rows = append(rows, []string{u.ID, u.Name, u.Email, string(u.Role), u.MatricOrStaffNo, u.Status})
			}
			table(a.out, "ID\tNAME\tEMAIL\tROLE\tNO\tSTATUS", rows)
			pageFooter(a, page)
			return nil
		},
	}
	pf.bind(cmd)
	cmd.Flags().StringVar(&role, "role", "", "admin, librarian or student")
	return cmd
}

func printUser(a *app, u model.User) {
	if a.flags.json {
		printJSON(a.out, u)
		return
	}
	fmt.Fprintf(a.out, "%s <%s>\n  role:   %s\n  no:     %s\n  status: %s\n", u.Name, u.Email, u.Role, u.MatricOrStaffNo, u.Status)
}

func userGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get [ID]",
		Short: "Show an account; your own without ID",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, caps, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			target := id.UserID
			if len(args) == 1 && args[0] != id.UserID {
				if !caps.ManageStudents {
					return denied("view other accounts")
				}
				target = args[0]
			}
			u, err := a.client.GetUser(cmd.Context(), target)
			if err != nil {
				return err
			}
			printUser(a, u)
			return nil
		},
	}
}

func userRegisterCmd(a *app) *cobra.Command {
	var nu model.NewUser
	var role string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, caps, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			if !caps.RegisterUsers {
				return denied("register users")
			}
			r, ok := model.ParseRole(role)
			if !ok {
				return fmt.Errorf("unknown role %q", role)
			}
			nu.Role = r
			if nu.Name == "" || nu.Email == "" {
				return fmt.Errorf("--name and --email are required")
			}
			if nu.Password, err = a.newPassword(); err != nil {
				return err
			}
			if err := a.client.RegisterUser(cmd.Context(), nu); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Registered %s as %s\n", nu.Email, nu.Role)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&nu.Name, "name", "", "full name")
	f.StringVar(&nu.Email, "email", "", "email")
	f.StringVar(&nu.MatricOrStaffNo, "no", "", "matric or staff number")
	f.StringVar(&role, "role", string(model.RoleStudent), "admin, librarian or student")
	return cmd
}

func userUpdateCmd(a *app) *cobra.Command {
	var name, email, role, status, no, image string
	cmd := &cobra.Command{
		Use:   "update [ID]",
		Short: "Edit an account; your own without ID",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, caps, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			target := id.UserID
			if len(args) == 1 && args[0] != id.UserID {
				if !caps.ManageStudents {
					return denied("edit other accounts")
				}
				target = args[0]
			}
			f := cmd.Flags()
			if (f.Changed("role") || f.Changed("status")) && !caps.EditUserRole {
				return denied("change roles or status")
			}
			u, err := a.client.GetUser(cmd.Context(), target)
			if err != nil {
				return err
			}
			if f.Changed("name") {
				u.Name = name
			}
			if f.Changed("email") {
				u.Email = email
			}
			if f.Changed("no") {
				u.MatricOrStaffNo = no
			}
			if f.Changed("image") {
				u.ImageURL = image
			}
			if f.Changed("status") {
				u.Status = status
			}
			if f.Changed("role") {
				r, ok := model.ParseRole(role)
				if !ok {
					return fmt.Errorf("unknown role %q", role)
				}
				u.Role = r
			}
			updated, err := a.client.UpdateUser(cmd.Context(), target, u)
			if err != nil {
				return err
			}
			printUser(a, updated)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "full name")
	f.StringVar(&email, "email", "", "email")
	f.StringVar(&no, "no", "", "matric or staff number")
	f.StringVar(&image, "image", "", "avatar URL")
	f.StringVar(&status, "status", "", "account status")
	f.StringVar(&role, "role", "", "admin, librarian or student")
	return cmd
}

func userDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Remove an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, caps, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			if !caps.DeleteUsers {
				return denied("delete users")
			}
			if !yes {
				ok, err := a.confirm("Are you sure you want to delete this user?")
				if err != nil || !ok {
					return err
				}
			}
			if err := a.client.DeleteUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "User deleted")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}
