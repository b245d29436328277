// Package executor runs one step over one document on a bounded worker pool.
//
// Submit never returns an error. Whatever goes wrong during an invocation (the executable cannot be started, the
// step exceeds its deadline, a stream breaks, or the step prints more diagnostic lines than it is allowed to) is
// logged and turned into a failed document. A failed document keeps the content it had before the step, except when
// the diagnostic threshold is exceeded: the step completed, so its output is adopted before the document is marked
// failed.
package executor
