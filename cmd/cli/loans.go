package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/and161185/libdesk/internal/circulation"
	"github.com/and161185/libdesk/internal/model"
)

func borrowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "borrow BOOK_ID",
		Short: "Borrow a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, caps, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			if !caps.Borrow {
				return denied("borrow books")
			}
			r, err := a.workflow(false).Lend(cmd.Context(), id.UserID, args[0])
			if err != nil {
				return err
			}
			if a.flags.json {
				printJSON(a.out, r)
				return nil
			}
			fmt.Fprintf(a.out, "Borrowed %q by %s\n  due:    %s\n  status: %s\n  you can borrow %d more\n",
				r.Book.Title, r.Book.Author, r.DueDate, r.Status, r.RemainingBookCanBorrow)
			return nil
		},
	}
}

func loanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "loan", Short: "Borrow records"}
	cmd.AddCommand(loanListCmd(a), loanShowCmd(a), loanReturnCmd(a))
	return cmd
}

func loanListCmd(a *app) *cobra.Command {
	var (
		pf       pageFlags
		statuses []string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List borrow records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			req := pf.request()
			for _, s := range statuses {
				st, err := model.ParseStatus(s)
				if err != nil {
					return err
				}
				req.Statuses = append(req.Statuses, st)
			}
			page, err := a.client.Loans(cmd.Context(), req)
			if err != nil {
				return err
			}
			if a.flags.json {
				printJSON(a.out, page)
				return nil
			}
			rows := make([][]string, 0, len(page.Data))
			for _, r := range page.Data {
				borrower := ""
				if r.User != nil {
					borrower = r.User.Name
				}
				rows = append(rows, []string{
					r.ID, r.Book.Title, borrower, r.DueDate, model.RemainingLabel(r.RemainingDay), string(r.Status), r.Fine.String(),
				})
			}
			table(a.out, "ID\tBOOK\tBORROWER\tDUE\tREMAINING\tSTATUS\tFINE", rows)
			pageFooter(a, page)
			return nil
		},
	}
	pf.bind(cmd)
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Borrowed, Returned, Losted (repeatable)")
	return cmd
}

func printLoan(a *app, r model.BorrowRecord, settle bool) {
	if a.flags.json {
		printJSON(a.out, r)
		return
	}
	fmt.Fprintf(a.out, "%s\n  by %s (%s)\n", r.Book.Title, r.Book.Author, r.Book.Price)
	if r.User != nil {
		fmt.Fprintf(a.out, "  borrower:  %s %s\n", r.User.Name, r.User.MatricOrStaffNo)
	}
	fmt.Fprintf(a.out, "  borrowed:  %s\n  due:       %s\n", r.BorrowDate, r.DueDate)
	if r.ReturnDate != nil {
		fmt.Fprintf(a.out, "  returned:  %s\n", *r.ReturnDate)
	}
	fmt.Fprintf(a.out, "  remaining: %s\n  status:    %s\n  fine:      %s\n", model.RemainingLabel(r.RemainingDay), r.Status, r.Fine)
	if !settle {
		return
	}
	for _, st := range circulation.Actions(r) {
		if d, err := circulation.Prepare(r, st); err == nil {
			fmt.Fprintf(a.out, "  %-9s  fine %s\n", strings.ToLower(string(st)), d.Fine)
		}
	}
}

func loanShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a borrow record and the actions it allows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, caps, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			r, err := a.client.Transaction(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printLoan(a, r, caps.SettleLoans)
			return nil
		},
	}
}

func loanReturnCmd(a *app) *cobra.Command {
	var lost, yes bool
	cmd := &cobra.Command{
		Use:   "return ID",
		Short: "Mark a borrowed book returned (or lost)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, caps, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			if !caps.SettleLoans {
				return denied("settle loans")
			}
			rec, err := a.client.Transaction(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			status := model.StatusReturned
			if lost {
				status = model.StatusLosted
			}
			updated, err := a.workflow(yes).Settle(cmd.Context(), rec, status)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Book marked as %s\n", updated.Status)
			printLoan(a, updated, false)
			return nil
		},
	}
	cmd.Flags().BoolVar(&lost, "lost", false, "mark the book lost; the fine is its price")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}
