package domain

import "context"

// Recorder persists scan attempts. Writes are best-effort on the scan path:
// a failed audit write must never fail the scan response.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
	List(ctx context.Context, filter ListFilter) ([]ScanLog, error)
}

// ListFilter narrows scan log queries for the back office.
type ListFilter struct {
	CardUID string
	Reason  string
	Limit   int
}
