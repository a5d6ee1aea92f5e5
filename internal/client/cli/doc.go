// Package cli implements the interactive DocVault client.
//
// The REPL is the navigation layer: each command is a view, protected
// views pass through a route guard that re-checks the session on every
// dispatch, and the password recovery views hand the in-progress
// attempt to each other the way pages hand over navigation state.
package cli
