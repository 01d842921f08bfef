// Package auth verifies presented secrets against stored credentials and
// orchestrates the account's credential lifecycle.
//
// AuthService covers authentication, password reset via single-use tokens,
// password change, credential replacement and removal, and API key issuance.
// Removal is gated by the credential package's guard so an account can never
// be left without a way to sign in.
//
// Negative outcomes that are expected user behavior are results, not faults:
// a wrong password in ChangePassword returns (false, nil), and all
// authentication failures collapse into ErrInvalidCredentials so callers
// cannot distinguish an unknown account from a wrong secret. Store failures
// (including optimistic concurrency conflicts) propagate as errors for the
// caller to retry from a fresh read.
//
// # Usage
//
//	svc := auth.NewAuthService(repo,
//	    auth.WithNotificationManager(nm),
//	    auth.WithAPIKeyExpirationDays(30),
//	)
//
//	usr, err := svc.Authenticate(ctx, "alice", "secret")
//	if err != nil {
//	    // always auth.ErrInvalidCredentials
//	}
package auth
