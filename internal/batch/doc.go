// Package batch drives many files through the render pipeline.
//
// The orchestrator owns the run-scoped resources: the stay-open metadata
// extractor (started lazily, closed exactly once at batch end including
// aborts), a read-only report database handle, the run lock in the output
// directory, and the worker pool. Per-file failures mark that job failed
// and the batch continues; only run-level problems abort.
package batch
