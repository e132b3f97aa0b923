package store

// Store defines the interface for run checkpoint persistence.
// Implementations must be safe for concurrent use.
//
// Error handling conventions:
//   - Return nil error on success
//   - Return ErrNotFound if the run doesn't exist (for Load/Delete)
//   - Return descriptive errors for I/O, serialization, or validation failures
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// SaveRun atomically persists the full run state (population, fitness,
	// generation record) for the given run. An existing checkpoint for this
	// runID is overwritten; the call is made once per completed generation.
	SaveRun(runID string, state *RunState) error

	// LoadRun retrieves the persisted state for the given run.
	// Returns ErrNotFound if no checkpoint exists for this runID.
	// Returns an error if a checkpoint exists but cannot be read or decoded.
	LoadRun(runID string) (*RunState, error)

	// ListRuns returns metadata for all persisted runs.
	// The returned slice may be empty if no runs exist.
	ListRuns() ([]RunInfo, error)

	// DeleteRun removes the checkpoint and all associated artifacts for the
	// given run. Returns ErrNotFound if no checkpoint exists for this runID.
	DeleteRun(runID string) error
}

// ErrNotFound is returned when a requested run does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing run checkpoint. It is distinct from a
// decode or validation failure: absence triggers a fresh bootstrap, while a
// present-but-corrupt checkpoint is fatal.
type NotFoundError struct {
	RunID string
}

func (e *NotFoundError) Error() string {
	if e.RunID != "" {
		return "run not found: " + e.RunID
	}
	return "run not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
