// Package audit records membership and role change events. The engine
// treats the logger as a collaborator: events are emitted after the
// mutation commits and a recording failure is logged, never surfaced.
package audit
