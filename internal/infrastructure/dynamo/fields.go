package dynamo

// Item attribute names shared by every record table.
const (
	attrRecordID  = "record_id"
	attrCreatedAt = "created_at"
	attrFields    = "fields"
)

// createdAtLayout sorts lexicographically in UTC, so created_at can be
// compared as a string in filter expressions.
const createdAtLayout = "2006-01-02T15:04:05.000Z"
