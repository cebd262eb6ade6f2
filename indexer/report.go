package indexer

import (
	"encoding/json"
	"time"
)

// Report summarizes an indexing task.
type Report struct {
	Indexed int
	Errors  int
	Elapsed time.Duration
}

// ElapsedMs returns the elapsed time in whole milliseconds.
func (r Report) ElapsedMs() int64 {
	return r.Elapsed.Milliseconds()
}

func (r Report) merge(indexed, errs int) Report {
	r.Indexed += indexed
	r.Errors += errs
	return r
}

func (r Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Indexed   int   `json:"indexed"`
		Errors    int   `json:"errors"`
		ElapsedMs int64 `json:"elapsedTime"`
	}{r.Indexed, r.Errors, r.ElapsedMs()})
}

func (r Report) summary() map[string]interface{} {
	return map[string]interface{}{
		"indexed":     r.Indexed,
		"errors":      r.Errors,
		"duration_ms": r.ElapsedMs(),
	}
}
