package snapshot

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/flocktracker/internal/scheduler"
	"github.com/mamadbah2/flocktracker/internal/service/counts"
)

// ErrClosed is returned by Flush after Close.
var ErrClosed = errors.New("autosaver closed")

const saveTimeout = 30 * time.Second

// Autosaver saves the board after edits have been quiet for a while. Only one
// save runs at a time and each one writes the newest board.
type Autosaver struct {
	board     *counts.Board
	svc       *Service
	debouncer *scheduler.Debouncer
	logger    *zap.Logger

	mu      sync.Mutex
	saved   uint64
	lastErr error
	closed  bool
}

// NewAutosaver hooks into board so every change schedules a save after
// delay. The board's current state counts as saved.
func NewAutosaver(board *counts.Board, svc *Service, delay time.Duration, logger *zap.Logger) *Autosaver {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Autosaver{
		board:  board,
		svc:    svc,
		logger: logger,
		saved:  board.Version(),
	}
	a.debouncer = scheduler.NewDebouncer(delay, a.autosave)
	board.OnChange(a.debouncer.Trigger)
	return a
}

// Flush cancels the pending timer and saves the board right away.
func (a *Autosaver) Flush(ctx context.Context) (SaveResult, error) {
	a.debouncer.Cancel()
	return a.save(ctx, true)
}

// Dirty reports whether the board changed since the last successful save.
func (a *Autosaver) Dirty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.board.Version() != a.saved
}

// LastError returns the error of the most recent save, if it failed.
func (a *Autosaver) LastError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// Close stops the timer, lets a running save finish and writes any unsaved
// edits.
func (a *Autosaver) Close(ctx context.Context) error {
	a.debouncer.Stop()
	_, err := a.save(ctx, false)
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	return err
}

func (a *Autosaver) autosave() {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if _, err := a.save(ctx, false); err != nil {
		a.logger.Warn("autosave failed, will retry on next change", zap.Error(err))
	}
}

// save snapshots the board while holding the save lock, so a save that
// starts later always writes data at least as new as an earlier one.
func (a *Autosaver) save(ctx context.Context, force bool) (SaveResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return SaveResult{}, ErrClosed
	}

	model, version := a.board.Snapshot()
	if !force && version == a.saved {
		return SaveResult{}, nil
	}

	res, err := a.svc.Save(ctx, model)
	a.lastErr = err
	if err != nil {
		return SaveResult{}, err
	}
	a.saved = version
	a.logger.Debug("board saved", zap.Uint64("version", version))
	return res, nil
}
