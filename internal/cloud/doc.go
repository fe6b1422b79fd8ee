// Package cloud is the remote data service: accounts, tokens and the per-user
// journal and bar tables in a hosted PostgreSQL database.
//
// The sync engine only needs the record operations (GetUpdated*, Upsert*) and
// the IsConfigured/IsAuthenticated checks. Account operations are used by the
// CLI. Every record operation requires a session obtained from SignUp, SignIn
// or RestoreSession; an expired access token is refreshed once, transparently.
package cloud
