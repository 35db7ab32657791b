package domain

// Email is an outbound HTML message. Either To or Bcc must be non-empty.
type Email struct {
	To      []string
	Bcc     []string
	Subject string
	HTML    string
}

// ListingEvent is published when a new property is created.
type ListingEvent struct {
	RecordID    string `json:"recordId"`
	Title       string `json:"title"`
	Location    string `json:"location"`
	Description string `json:"description,omitempty"`
	Price       any    `json:"price,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// NewListingEvent builds the event payload for a created property record.
func NewListingEvent(r *Record) ListingEvent {
	return ListingEvent{
		RecordID:    r.ID,
		Title:       r.String(FieldTitle),
		Location:    r.String(FieldLocation),
		Description: r.String(FieldDescription),
		Price:       r.Fields[FieldPrice],
		ImageURL:    ImageURL(r),
	}
}
