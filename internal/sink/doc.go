// Package sink contains the notifications.Sink implementations: terminal and
// desktop output, the history recorder and the browser opener that follows a
// notification to its latest comment. Multi combines several of them.
package sink
