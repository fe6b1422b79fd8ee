// Package cloudsync reconciles the local store with the cloud.
//
// One run pulls records changed remotely since the last successful run and
// merges them into the local collections (last write wins, local kept on a
// tie), then pushes every dirty local record in one batch per kind and
// stamps the pushed records clean. Runs never overlap and never return an
// error: failures are reported through Result and Status.
package cloudsync
