// Package role manages role definitions: the registry for custom
// roles, the compiled-in baseline of system roles, and the reconciler
// that keeps stored system roles aligned with that baseline.
package role
