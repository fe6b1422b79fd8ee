// Package models defines the records kept in the local store and mirrored to
// the cloud: journal entries and bars, each carrying sync metadata.
package models

import "time"

// Kind names a record collection. The value doubles as the local storage
// key and the cloud table name.
type Kind string

const (
	KindJournalEntries Kind = "journal_entries"
	KindBars           Kind = "bars"
)

// SyncMeta is the bookkeeping shared by every syncable record.
//
// A record is dirty when it has never been synced or was modified after its
// last sync. Deleted records are kept locally so the deletion can be pushed.
type SyncMeta struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	SyncedAt  *time.Time `json:"syncedAt,omitempty"`
	Deleted   bool       `json:"deleted"`
}

// Meta gives generic code access to the embedded metadata.
func (m *SyncMeta) Meta() *SyncMeta { return m }

// Dirty reports whether the record has local changes not yet pushed.
func (m *SyncMeta) Dirty() bool {
	return m.SyncedAt == nil || m.UpdatedAt.After(*m.SyncedAt)
}

// Touch records a local modification at now.
func (m *SyncMeta) Touch(now time.Time) {
	m.UpdatedAt = now.UTC()
}

// MarkSynced stamps the record as in sync with its current UpdatedAt.
func (m *SyncMeta) MarkSynced() {
	at := m.UpdatedAt
	m.SyncedAt = &at
}

// Record is implemented by pointers to syncable records.
type Record interface {
	Meta() *SyncMeta
	Validate() error
}
