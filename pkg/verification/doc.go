// Package verification issues the single-use tokens backing the password
// reset and email confirmation flows.
package verification
