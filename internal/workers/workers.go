// Package workers sizes the task slots handed to the workflow engine.
package workers

import "runtime"

// Clamp resolves the number of concurrent engine tasks. A requested
// value of zero or less falls back to the number of CPUs, and the
// result never exceeds the number of tasks there are to run.
func Clamp(requested, tasks int) int {
	n := requested
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if tasks > 0 && n > tasks {
		n = tasks
	}
	if n < 1 {
		n = 1
	}

	return n
}
