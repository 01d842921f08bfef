// Package user holds the account aggregate and its repositories.
//
// The User aggregate exclusively owns its credential set and verification
// tokens. Repositories expose pure data access; the business rules live in
// pkg/auth and pkg/emailchange. Save takes the version the caller read and
// fails with ErrConcurrencyConflict when the stored aggregate has moved,
// which serializes writes per user without cross-user blocking.
package user
