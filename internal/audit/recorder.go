package audit

import (
	"crypto/rand"
	"log/slog"
	"time"

	"github.com/cutoverd/bluegreen-deploy/internal/cutover"
	"github.com/oklog/ulid"
)

// Recorder adapts a DB into a cutover.Recorder, tagging every iteration
// with a single run ID so the iterations of one cutover can be queried
// together.
type Recorder struct {
	db     *DB
	runID  string
	logger *slog.Logger
	now    func() time.Time
}

// NewRunID generates a correlation ID for one cutover invocation.
func NewRunID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// NewRecorder builds a Recorder that writes to db under runID.
func NewRecorder(db *DB, runID string, logger *slog.Logger) *Recorder {
	return &Recorder{db: db, runID: runID, logger: logger, now: time.Now}
}

// RecordIteration implements cutover.Recorder.
func (r *Recorder) RecordIteration(iteration int, result cutover.GateResult, killed []string, newInstances int) {
	err := r.db.Save(Iteration{
		RunID:        r.runID,
		Iteration:    iteration,
		RecordedAt:   r.now(),
		Gates:        result,
		Killed:       killed,
		NewInstances: newInstances,
	})
	if err != nil {
		r.logger.Warn("failed to write audit record", "run_id", r.runID, "iteration", iteration, "error", err)
	}
}
