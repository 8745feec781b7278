// Package auth provides account registration and login for the desktop.
//
// Credentials live in an embedded Badger database; passwords are stored only
// as bcrypt hashes. Successful logins mint signed JWTs that the frontend
// carries for identity (display name resolution), not for access control —
// the desktop itself stays open.
//
// Example Usage:
//
//	store, err := auth.NewStore(cfg.DataDir, logger)
//	user, err := store.Register(ctx, "alice", "s3cret")
//	user, err = store.Authenticate(ctx, "alice", "s3cret")
package auth
