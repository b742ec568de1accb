// Package circulation implements the return/lost settlement of borrow records and the fine rules behind it.
package circulation

import (
	"fmt"

	"github.com/and161185/libdesk/internal/errs"
	"github.com/and161185/libdesk/internal/model"
)

// FinePerOverdueDay is charged for each day a book comes back late.
const FinePerOverdueDay model.Minor = 100

// ComputeFine returns what a borrower owes when a loan ends in status.
// Lost books cost their price; late returns cost FinePerOverdueDay per overdue day.
func ComputeFine(status model.BorrowStatus, remainingDay int, price model.Minor) model.Minor {
	switch status {
	case model.StatusLosted:
		return price
	case model.StatusReturned:
		if remainingDay < 0 {
			return model.Minor(-remainingDay) * FinePerOverdueDay
		}
	}
	return 0
}

// Actions lists the transitions offered for rec. Settled records offer none.
func Actions(rec model.BorrowRecord) []model.BorrowStatus {
	if rec.Status != model.StatusBorrowed {
		return nil
	}
	return []model.BorrowStatus{model.StatusReturned, model.StatusLosted}
}

// Decision is a prepared settlement awaiting confirmation.
type Decision struct {
	RecordID string
	Status   model.BorrowStatus
	Fine     model.Minor
	Message  string
}

// Prepare validates the transition and computes the fine and the confirmation prompt.
func Prepare(rec model.BorrowRecord, status model.BorrowStatus) (Decision, error) {
	if rec.Status.Terminal() {
		return Decision{}, fmt.Errorf("%w: %s is %s", errs.ErrTerminalStatus, rec.ID, rec.Status)
	}
	if rec.Status != model.StatusBorrowed {
		return Decision{}, fmt.Errorf("%w: record in unknown status %q", errs.ErrInvalidStatus, rec.Status)
	}
	if status != model.StatusReturned && status != model.StatusLosted {
		return Decision{}, fmt.Errorf("%w: %q", errs.ErrInvalidStatus, status)
	}

	remaining := 0
	if rec.RemainingDay != nil {
		remaining = *rec.RemainingDay
	}
	fine := ComputeFine(status, remaining, rec.Book.Price)
	return Decision{
		RecordID: rec.ID,
		Status:   status,
		Fine:     fine,
		Message:  confirmMessage(status, fine),
	}, nil
}

func confirmMessage(status model.BorrowStatus, fine model.Minor) string {
	switch {
	case status == model.StatusLosted:
		return fmt.Sprintf("Marking this book as lost will result in a fine of %s. Are you sure?", fine)
	case fine > 0:
		return fmt.Sprintf("Returning this book late will result in a fine of %s. Are you sure?", fine)
	default:
		return "Thank you for returning the book. Are you sure?"
	}
}
