package constants

// ItemStatus is the outcome stored for one processed file in run_items.
type ItemStatus string

// Stable values (store these exact strings in DB).
const (
	ItemStatusOK     ItemStatus = "OK"
	ItemStatusFailed ItemStatus = "FAILED"
)

// RunStatus is the lifecycle state of a row in runs.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED" // every item attempted; may still contain failures
)
