package domain

import "time"

// Record is a row in the external record store: a flat field map plus a
// server-assigned id and creation time.
type Record struct {
	ID        string         `json:"id"`
	Fields    map[string]any `json:"fields"`
	CreatedAt time.Time      `json:"createdTime"`
}

// String returns the field as a string, or "" when absent or not a string.
func (r *Record) String(field string) string {
	s, _ := r.Fields[field].(string)
	return s
}

// Bool returns the field as a bool, or false when absent.
func (r *Record) Bool(field string) bool {
	b, _ := r.Fields[field].(bool)
	return b
}

// ListOptions narrows a record-store listing. Equal holds exact field matches,
// combined with AND. Zero values mean no constraint.
type ListOptions struct {
	MaxRecords   int
	Fields       []string
	Equal        map[string]any
	CreatedAfter time.Time
}
