// Package notify implements the membership notification sink: a
// signed webhook delivery and a log-only fallback. Sinks log their
// own failures; the mutation path never sees them.
package notify
