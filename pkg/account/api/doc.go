// Package api exposes the account credential and email operations over
// HTTP. Authentication issues a signed JWT; mutating endpoints require it.
// The reset and confirmation flows are public since their callers cannot
// sign in yet.
package api
