// Package async provides a panic-safe helper for fire-and-forget
// goroutines. Membership notifications are dispatched through it so a
// failing or panicking sink can never affect a committed mutation.
package async
