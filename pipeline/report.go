package pipeline

import "time"

// ItemFailure records one isolated item failure within a step. An empty
// ItemID means the failure covered a whole batch invocation.
type ItemFailure struct {
	ItemID string `json:"item_id,omitempty"`
	Error  string `json:"error"`
}

// StepReport summarizes one step's execution for one document.
type StepReport struct {
	Operation string        `json:"operation"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Failures  []ItemFailure `json:"failures,omitempty"`
}

// DocReport summarizes one document's run. An aborted document contributed
// nothing to its annotation store: staged outputs were discarded.
type DocReport struct {
	DocID    string        `json:"doc_id"`
	Steps    []StepReport  `json:"steps"`
	Aborted  bool          `json:"aborted,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`

	// DerivedDocIDs lists documents spawned by payload-rewriting steps.
	DerivedDocIDs []string `json:"derived_doc_ids,omitempty"`
}

// RunReport aggregates per-document reports for a whole pipeline run.
// Partial results remain usable while failures remain traceable.
type RunReport struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Docs      []DocReport   `json:"docs"`
}

// Succeeded returns the total count of successfully processed items across
// all documents and steps.
func (r *RunReport) Succeeded() int {
	n := 0
	for _, d := range r.Docs {
		for _, s := range d.Steps {
			n += s.Succeeded
		}
	}
	return n
}

// Failed returns the total count of failed items across all documents and
// steps.
func (r *RunReport) Failed() int {
	n := 0
	for _, d := range r.Docs {
		for _, s := range d.Steps {
			n += s.Failed
		}
	}
	return n
}

// Aborted returns how many documents were aborted by a fail-fast step.
func (r *RunReport) Aborted() int {
	n := 0
	for _, d := range r.Docs {
		if d.Aborted {
			n++
		}
	}
	return n
}
