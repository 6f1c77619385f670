package batch

import "time"

// Outcome is the terminal state of one job.
type Outcome string

const (
	OutcomeRendered Outcome = "rendered"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
)

// Job records one discovered file's trip through the pipeline.
type Job struct {
	Source  string
	Dest    string
	Outcome Outcome
	// Reason explains skipped and failed outcomes.
	Reason  string
	Elapsed time.Duration
}

// Summary aggregates a finished run.
type Summary struct {
	RunID    string
	Jobs     []Job
	Elapsed  time.Duration
	Rendered int
	Skipped  int
	Failed   int
}

// Ok reports whether the batch finished with zero failures. It decides
// the process exit code.
func (s *Summary) Ok() bool {
	return s.Failed == 0
}

func (s *Summary) add(job Job) {
	s.Jobs = append(s.Jobs, job)
	switch job.Outcome {
	case OutcomeRendered:
		s.Rendered++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
}
