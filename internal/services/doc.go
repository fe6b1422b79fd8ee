// Package services holds the local use-cases behind the CLI: journal and
// bar CRUD over the storage adapter, and account sign-in against the cloud.
//
// Every mutation stamps the record's sync metadata so the sync engine can
// find it; deletions are soft so they can be pushed.
package services
