// Package credential defines the credential data model shared by the account
// services: type tags, builders, the display projection, and the removal
// guard that keeps every user able to log in.
package credential
