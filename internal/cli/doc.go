// Package cli provides the interactive brewlog command-line client.
//
// The App wires the storage adapter, the journal and bar services, the
// cloud account service and the sync engine behind a small REPL. The
// journal works fully offline; cloud commands report an error when no cloud
// database is configured.
//
// Commands:
//   - register / login / logout      manage the cloud account
//   - addentry / addbar              record a beer or a bar visit
//   - list / bars / delete <id>      browse and remove records
//   - sync / status / autosync on|off
//   - storage / usedir <path> / usedir reset
//   - backup / restore               copy data to and from the S3 snapshot
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
