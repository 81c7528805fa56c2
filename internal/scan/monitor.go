package scan

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrScanInProgress is returned when a scan is requested while another run
// holds the single-flight slot. The HTTP layer maps it to 409 Conflict.
var ErrScanInProgress = errors.New("a scan is already in progress")

// ErrNoActiveScan is returned by cancellation when no run holds the slot.
var ErrNoActiveScan = errors.New("no scan is currently running")

// CurrentScan is a snapshot of the run holding the single-flight slot.
type CurrentScan struct {
	RunID     string
	ScanType  string
	StartedAt time.Time
	Deadline  time.Duration
}

// Elapsed returns the wall-clock time since the scan started.
func (c CurrentScan) Elapsed() time.Duration {
	return time.Since(c.StartedAt)
}

// Monitor enforces the process-wide single-flight invariant: at most one
// scan run at a time. It also carries the active run's cancel function so an
// operator can abort a stuck scan out of band.
type Monitor struct {
	mu      sync.Mutex
	current *CurrentScan
	cancel  context.CancelFunc
}

// NewMonitor creates an idle monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// TryAcquire claims the single-flight slot for the given run. Returns
// ErrScanInProgress without blocking when another run holds it.
func (m *Monitor) TryAcquire(runID, scanType string, deadline time.Duration, cancel context.CancelFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return ErrScanInProgress
	}

	m.current = &CurrentScan{
		RunID:     runID,
		ScanType:  scanType,
		StartedAt: time.Now().UTC(),
		Deadline:  deadline,
	}
	m.cancel = cancel
	return nil
}

// Release frees the slot if the given run holds it. Releasing a slot held by
// a different run is a no-op, so a late-finishing cancelled run cannot free
// its successor's slot.
func (m *Monitor) Release(runID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || m.current.RunID != runID {
		return
	}
	m.current = nil
	m.cancel = nil
}

// CancelCurrent cancels the active run's context and returns its id. The
// slot itself is released by the run's own teardown, not here; the cancel
// signal may take a moment to propagate through in-flight batch work.
func (m *Monitor) CancelCurrent() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return "", ErrNoActiveScan
	}
	if m.cancel != nil {
		m.cancel()
	}
	return m.current.RunID, nil
}

// Status returns a snapshot of the active scan, or nil when idle.
func (m *Monitor) Status() *CurrentScan {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil
	}
	snapshot := *m.current
	return &snapshot
}

// IsStuck reports whether the active scan has outlived its deadline.
// This is a heuristic for operators, checked independently of the context
// timeout that normally enforces the deadline. A run acquired without a
// deadline is judged against its scan type's preset.
func (m *Monitor) IsStuck() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return false
	}
	deadline := m.current.Deadline
	if deadline <= 0 {
		deadline = DeadlineFor(m.current.ScanType)
	}
	return time.Since(m.current.StartedAt) > deadline
}
