// Package supervisor owns the awim worker process: launching it with the
// persisted settings, terminating it on request, and inferring its connection
// status from the unstructured text it writes to stdout and stderr.
//
// The worker offers no status channel, so three background tasks feed a
// shared status model: two line readers that classify output, and an exit
// watcher that finalizes the status from the exit code. A user-requested stop
// and an unexpected exit can race; the process handle is the single
// arbitration point, and whichever path observes it already cleared no-ops.
package supervisor
