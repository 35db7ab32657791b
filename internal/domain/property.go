package domain

// Property record field names as stored in the record store.
const (
	FieldTitle          = "Title"
	FieldPrice          = "Price"
	FieldLocation       = "Location"
	FieldAddress        = "Address"
	FieldPropertyType   = "Property Type"
	FieldBedrooms       = "Bedrooms"
	FieldBathrooms      = "Bathrooms"
	FieldSquareFeet     = "Square Feet"
	FieldYearBuilt      = "Year Built"
	FieldStatus         = "Status"
	FieldImage          = "Image"
	FieldDescription    = "Description"
	FieldAmenities      = "Amenities"
	FieldAgentName      = "Agent's Name"
	FieldAgentEmail     = "Agent's Email"
	FieldAgentPhone     = "Agent's Phone Number"
	FieldContactEmail   = "Contact's Email"
	FieldPropertyID     = "Property ID"
	FieldWarningSent    = "Expiration Warning Sent"
)

// Listing statuses accepted by the catalog.
const (
	StatusAvailable = "Available"
	StatusSold      = "Sold"
	StatusPending   = "Pending"
)

// ValidStatus reports whether s is one of the accepted listing statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusAvailable, StatusSold, StatusPending:
		return true
	}
	return false
}

// FieldKind describes how an incoming property field is coerced before it is
// forwarded to the record store.
type FieldKind int

const (
	KindText FieldKind = iota
	KindFloat
	KindInt
	KindEmail
	KindAttachment
	KindStatus
)

// WritableFields is the allow-list of fields clients may set on a property.
var WritableFields = map[string]FieldKind{
	FieldTitle:        KindText,
	FieldPrice:        KindFloat,
	FieldLocation:     KindText,
	FieldAddress:      KindText,
	FieldPropertyType: KindText,
	FieldBedrooms:     KindInt,
	FieldBathrooms:    KindFloat,
	FieldSquareFeet:   KindInt,
	FieldYearBuilt:    KindInt,
	FieldStatus:       KindStatus,
	FieldImage:        KindAttachment,
	FieldDescription:  KindText,
	FieldAmenities:    KindText,
	FieldAgentName:    KindText,
	FieldAgentEmail:   KindEmail,
	FieldAgentPhone:   KindText,
	FieldContactEmail: KindEmail,
	FieldPropertyID:   KindText,
}

// RequiredOnCreate lists fields a new listing must carry. The contact email
// is what ownership verification later checks against.
var RequiredOnCreate = []string{FieldTitle, FieldPrice, FieldLocation, FieldContactEmail}

// PrivateFields are never returned by public catalog reads.
var PrivateFields = []string{FieldContactEmail, FieldWarningSent}

// PublicFields is the projection requested from the record store for listings.
var PublicFields = []string{
	FieldTitle, FieldPrice, FieldLocation, FieldAddress, FieldPropertyType,
	FieldBedrooms, FieldBathrooms, FieldSquareFeet, FieldYearBuilt, FieldStatus,
	FieldImage, FieldDescription, FieldAmenities, FieldAgentName, FieldAgentEmail,
	FieldAgentPhone, FieldPropertyID,
}

// PublicView strips private fields from a property record.
func PublicView(r *Record) *Record {
	out := &Record{ID: r.ID, CreatedAt: r.CreatedAt, Fields: make(map[string]any, len(r.Fields))}
	for k, v := range r.Fields {
		out.Fields[k] = v
	}
	for _, f := range PrivateFields {
		delete(out.Fields, f)
	}
	return out
}

// ImageURL returns the first attachment URL of a property, preferring the
// large thumbnail when the store provides one.
func ImageURL(r *Record) string {
	list, ok := r.Fields[FieldImage].([]any)
	if !ok || len(list) == 0 {
		return ""
	}
	att, ok := list[0].(map[string]any)
	if !ok {
		return ""
	}
	if thumbs, ok := att["thumbnails"].(map[string]any); ok {
		if large, ok := thumbs["large"].(map[string]any); ok {
			if u, ok := large["url"].(string); ok && u != "" {
				return u
			}
		}
	}
	u, _ := att["url"].(string)
	return u
}
