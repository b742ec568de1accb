package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/and161185/libdesk/internal/errs"
	"github.com/and161185/libdesk/internal/model"
)

type dashboard struct {
	Summary  *model.Summary       `json:"summary,omitempty"`
	Trending []model.TrendingBook `json:"trending"`
	Recent   []model.Activity     `json:"recent"`
	Due      []model.DueEntry     `json:"due"`

	// Unavailable maps a section to the reason it could not be loaded.
	Unavailable map[string]string `json:"unavailable,omitempty"`
}

const (
	sectionSummary  = "summary"
	sectionTrending = "trending"
	sectionRecent   = "recent"
	sectionDue      = "due"
)

func dashboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show counters, trending books, recent activity and due dates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, caps, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			d := loadDashboard(cmd.Context(), a, caps.StudentScopedFeeds)
			if a.flags.json {
				printJSON(a.out, d)
			} else {
				printDashboard(a, d)
			}
			if d.allFailed(caps.StudentScopedFeeds) {
				return errors.New("dashboard unavailable")
			}
			return nil
		},
	}
}

// loadDashboard fetches every section on its own; a failed section is logged and noted.
func loadDashboard(ctx context.Context, a *app, student bool) dashboard {
	d := dashboard{Unavailable: map[string]string{}}
	fail := func(section string, err error) {
		a.log.Warn("dashboard section", zap.String("section", section), zap.Error(err))
		d.Unavailable[section] = errs.Message(err)
	}
	if !student {
		if s, err := a.client.Summary(ctx); err != nil {
			fail(sectionSummary, err)
		} else {
			d.Summary = &s
		}
	}
	var err error
	if d.Trending, err = a.client.Trending(ctx); err != nil {
		fail(sectionTrending, err)
	}
	if d.Recent, err = a.client.RecentActivity(ctx, student); err != nil {
		fail(sectionRecent, err)
	}
	if d.Due, err = a.client.IncomingDue(ctx, student); err != nil {
		fail(sectionDue, err)
	}
	if len(d.Unavailable) == 0 {
		d.Unavailable = nil
	}
	return d
}

func (d dashboard) allFailed(student bool) bool {
	want := 4
	if student {
		want = 3
	}
	return len(d.Unavailable) == want
}

func (d dashboard) notice(a *app, section string) bool {
	msg, ok := d.Unavailable[section]
	if ok {
		fmt.Fprintf(a.out, "%s unavailable: %s\n", section, msg)
	}
	return ok
}

func printDashboard(a *app, d dashboard) {
	if s := d.Summary; s != nil {
		fmt.Fprintf(a.out, "New books: %d   Borrowed: %d   Lost: %d   Available: %d\n\n",
			s.NewBooks, s.BorrowedBooks, s.LostBooks, s.AvailableBooks)
	} else if d.notice(a, sectionSummary) {
		fmt.Fprintln(a.out)
	}

	fmt.Fprintln(a.out, "Trending")
	if !d.notice(a, sectionTrending) {
		rows := make([][]string, 0, len(d.Trending))
		for _, t := range d.Trending {
			rows = append(rows, []string{t.Title, t.Author, strconv.Itoa(t.BorrowCount)})
		}
		table(a.out, "TITLE\tAUTHOR\tBORROWS", rows)
	}

	fmt.Fprintln(a.out, "\nRecent activity")
	if !d.notice(a, sectionRecent) {
		rows := make([][]string, 0, len(d.Recent))
		for _, r := range d.Recent {
			rows = append(rows, []string{r.BorrowDate, r.Title, r.BorrowerName})
		}
		table(a.out, "DATE\tTITLE\tBORROWER", rows)
	}

	fmt.Fprintln(a.out, "\nDue soon")
	if !d.notice(a, sectionDue) {
		rows := make([][]string, 0, len(d.Due))
		for _, e := range d.Due {
			left := e.RemainingDay
			rows = append(rows, []string{e.DueDate, e.Title, e.BorrowerName, model.RemainingLabel(&left)})
		}
		table(a.out, "DUE\tTITLE\tBORROWER\tREMAINING", rows)
	}
}
