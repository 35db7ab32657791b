// Package id mints identifiers for records and stored objects.
package id

import (
	"crypto/rand"
	"strings"

	"github.com/oklog/ulid/v2"
)

// RecordPrefix matches the shape of Airtable record ids so clients see one
// id format whichever backend is configured.
const RecordPrefix = "rec"

// New generates a ULID string, sortable by creation time.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// NewRecordID returns a record id such as "rec01J9Z...".
func NewRecordID() string { return RecordPrefix + New() }

// ObjectKey builds a lower-case object key under dir with the given extension.
func ObjectKey(dir, ext string) string {
	return strings.TrimSuffix(dir, "/") + "/" + strings.ToLower(New()) + ext
}
