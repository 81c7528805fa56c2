package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinscan/internal/domain"
	"coinscan/internal/events"
	"coinscan/internal/scan"
)

type countingJob struct {
	runs int
	err  error
}

func (j *countingJob) Run() error {
	j.runs++
	return j.err
}

func (j *countingJob) Name() string { return "counting" }

func TestAddJobRejectsBadSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	assert.Error(t, s.AddJob("not a schedule", &countingJob{}))
	assert.NoError(t, s.AddJob("@hourly", &countingJob{}))
}

func TestRunNow(t *testing.T) {
	s := New(zerolog.Nop())

	job := &countingJob{}
	require.NoError(t, s.RunNow(job))
	assert.Equal(t, 1, job.runs)

	failing := &countingJob{err: errors.New("boom")}
	assert.Error(t, s.RunNow(failing))
}

func TestStartStop(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.AddJob("@hourly", &countingJob{}))

	s.Start()
	s.Stop()
}

type noopRunRepo struct{}

func (noopRunRepo) Create(*domain.ScanRun) error            { return nil }
func (noopRunRepo) Update(*domain.ScanRun) error            { return nil }
func (noopRunRepo) GetByID(string) (*domain.ScanRun, error) { return nil, nil }
func (noopRunRepo) GetRecent(int) ([]domain.ScanRun, error) { return nil, nil }

func TestScanJobSkipsWhenScanInProgress(t *testing.T) {
	monitor := scan.NewMonitor()
	orch := scan.NewOrchestrator(scan.Deps{
		RunRepo: noopRunRepo{},
		Monitor: monitor,
		Bus:     events.NewBus(),
	}, zerolog.Nop())

	require.NoError(t, monitor.TryAcquire("manual-run", "deep", 30*time.Minute, nil))
	defer monitor.Release("manual-run")

	job := NewScanJob(orch, "quick", zerolog.Nop())
	assert.NoError(t, job.Run(), "a busy slot is a skip, not a job failure")
}

func TestScanJobPropagatesBadScanType(t *testing.T) {
	orch := scan.NewOrchestrator(scan.Deps{
		RunRepo: noopRunRepo{},
		Monitor: scan.NewMonitor(),
		Bus:     events.NewBus(),
	}, zerolog.Nop())

	job := NewScanJob(orch, "no_such_type", zerolog.Nop())
	assert.Error(t, job.Run())
}
