package localstore

import (
	"encoding/json"
	"time"
)

// Document is the versioned envelope every dataset is stored under.
// A stored document whose SchemaVersion differs from the current one is
// discarded wholesale; there is no field-level migration.
type Document[T any] struct {
	SchemaVersion string    `json:"schema_version"`
	LastCleanupAt time.Time `json:"last_cleanup_at"`
	Records       []T       `json:"records"`
}

func emptyDoc[T any](version string) Document[T] {
	return Document[T]{
		SchemaVersion: version,
		LastCleanupAt: time.Now(),
		Records:       []T{},
	}
}

// ReadDoc loads the document stored under key. It never fails: an absent
// key, unparseable JSON, a storage error, or a schema-version mismatch all
// yield a fresh empty document at the current version.
func ReadDoc[T any](s *Store, key, version string) Document[T] {
	blob, err := s.Get(key)
	if err != nil || len(blob) == 0 {
		return emptyDoc[T](version)
	}
	var doc Document[T]
	if err := json.Unmarshal(blob, &doc); err != nil {
		return emptyDoc[T](version)
	}
	if doc.SchemaVersion != version {
		return emptyDoc[T](version)
	}
	if doc.Records == nil {
		doc.Records = []T{}
	}
	return doc
}

// WriteDoc stamps the document with the current schema version and a fresh
// cleanup timestamp, then persists it. The error is returned for callers to
// degrade on; the stored blob is untouched on failure.
func WriteDoc[T any](s *Store, key, version string, doc Document[T]) error {
	doc.SchemaVersion = version
	doc.LastCleanupAt = time.Now()
	if doc.Records == nil {
		doc.Records = []T{}
	}
	blob, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.Put(key, blob)
}

// Clear removes the document under key entirely.
func (s *Store) Clear(key string) error {
	return s.Delete(key)
}
