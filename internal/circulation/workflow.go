package circulation

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/libdesk/internal/errs"
	"github.com/and161185/libdesk/internal/model"
)

// Backend is the part of the API client the workflow drives.
type Backend interface {
	Return(ctx context.Context, recordID string, status model.BorrowStatus, fine model.Minor) (model.BorrowRecord, error)
	Borrow(ctx context.Context, studentID, bookID string) (model.BorrowReceipt, error)
}

// Confirmer asks the user to accept a prompt.
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, message string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, message string) (bool, error) { return f(ctx, message) }

// Session exposes the generation counter of the signed-in session.
type Session interface {
	Generation() uint64
}

// Workflow settles and lends books. At most one action per record (or per student/book pair) is in flight.
type Workflow struct {
	backend Backend
	confirm Confirmer
	session Session
	log     *zap.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewWorkflow(b Backend, c Confirmer, s Session, log *zap.Logger) *Workflow {
	if log == nil {
		log = zap.NewNop()
	}
	return &Workflow{backend: b, confirm: c, session: s, log: log, inflight: map[string]struct{}{}}
}

// Settle moves rec to status after confirmation and returns the backend's updated record.
// On any failure the caller's record is left as it was.
func (w *Workflow) Settle(ctx context.Context, rec model.BorrowRecord, status model.BorrowStatus) (model.BorrowRecord, error) {
	d, err := Prepare(rec, status)
	if err != nil {
		return rec, err
	}
	release, err := w.acquire("settle:" + rec.ID)
	if err != nil {
		return rec, err
	}
	defer release()

	gen := w.session.Generation()
	ok, err := w.confirm.Confirm(ctx, d.Message)
	if err != nil {
		return rec, err
	}
	if !ok {
		return rec, errs.ErrNotConfirmed
	}

	updated, err := w.backend.Return(ctx, d.RecordID, d.Status, d.Fine)
	if w.session.Generation() != gen {
		return rec, errs.ErrSessionEnded
	}
	if err != nil {
		w.log.Warn("settle failed", zap.String("record_id", rec.ID), zap.String("status", string(status)), zap.Error(err))
		return rec, err
	}
	w.log.Info("loan settled",
		zap.String("record_id", rec.ID),
		zap.String("status", string(updated.Status)),
		zap.Int64("fine", int64(d.Fine)),
	)
	return updated, nil
}

// Lend borrows bookID for studentID.
func (w *Workflow) Lend(ctx context.Context, studentID, bookID string) (model.BorrowReceipt, error) {
	if studentID == "" || bookID == "" {
		return model.BorrowReceipt{}, errors.New("lend: student and book are required")
	}
	release, err := w.acquire("lend:" + studentID + ":" + bookID)
	if err != nil {
		return model.BorrowReceipt{}, err
	}
	defer release()

	gen := w.session.Generation()
	receipt, err := w.backend.Borrow(ctx, studentID, bookID)
	if w.session.Generation() != gen {
		return model.BorrowReceipt{}, errs.ErrSessionEnded
	}
	if err != nil {
		w.log.Warn("borrow failed", zap.String("book_id", bookID), zap.Error(err))
		return model.BorrowReceipt{}, err
	}
	return receipt, nil
}

func (w *Workflow) acquire(key string) (func(), error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, busy := w.inflight[key]; busy {
		return nil, errs.ErrBusy
	}
	w.inflight[key] = struct{}{}
	return func() {
		w.mu.Lock()
		delete(w.inflight, key)
		w.mu.Unlock()
	}, nil
}
