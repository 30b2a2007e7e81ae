// Package task contains the background machinery that grows flowers:
// the dispatcher that claims pending work on a timer, the pipeline that
// walks a claimed task through its four stages, and the retry policy
// applied when a run fails.
package task
