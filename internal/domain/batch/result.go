// Package batch holds the per-item outcomes of bulk document operations.
package batch

// Status is the processing outcome of a single batch item.
type Status string

// Batch item statuses.
const (
	StatusOK      Status = "ok"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// Result is the outcome of one item, addressed by its position in the request.
type Result struct {
	index  int
	id     string
	status Status
	err    error
}

// OK records a processed item.
func OK(index int, id string) Result {
	return Result{index: index, id: id, status: StatusOK}
}

// Failed records an item rejected with err.
func Failed(index int, id string, err error) Result {
	return Result{index: index, id: id, status: StatusError, err: err}
}

// Skipped records an item never attempted because the batch was aborted.
func Skipped(index int, id string, err error) Result {
	return Result{index: index, id: id, status: StatusSkipped, err: err}
}

// Index is the position of the item in the request.
func (r Result) Index() int { return r.index }
func (r Result) ID() string { return r.id }
func (r Result) Status() Status { return r.status }
func (r Result) Err() error { return r.err }
func (r Result) Succeeded() bool { return r.status == StatusOK }

// Summary counts results by status.
type Summary struct {
	OK      int
	Failed  int
	Skipped int
}

// Summarize tallies results.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.status {
		case StatusOK:
			s.OK++
		case StatusError:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		}
	}
	return s
}
