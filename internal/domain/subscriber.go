package domain

// Subscriber and inquiry record field names.
const (
	FieldSubscriberEmail = "Email"
	FieldSubscribed      = "Subscribed"

	FieldInquiryName          = "Name"
	FieldInquiryEmail         = "Email"
	FieldInquiryPhone         = "Phone"
	FieldInquiryMessage       = "Message"
	FieldInquiryPropertyID    = "PropertyID"
	FieldInquiryPropertyTitle = "PropertyTitle"
	FieldInquiryStatus        = "Status"
	FieldInquirySubmittedAt   = "SubmittedAt"
)

// InquiryStatusNew is the status assigned to freshly submitted inquiries.
const InquiryStatusNew = "New"

// SubscribeRequest is the body of POST /api/subscribe.
type SubscribeRequest struct {
	Email        string `json:"email" validate:"required,emailshape"`
	CaptchaToken string `json:"captchaToken" validate:"required"`
}

// InquiryRequest is the body of POST /api/inquiries.
type InquiryRequest struct {
	Name          string `json:"Name" validate:"required"`
	Email         string `json:"Email" validate:"required,emailshape"`
	Phone         string `json:"Phone" validate:"omitempty,max=32"`
	Message       string `json:"Message" validate:"required,max=5000"`
	PropertyID    string `json:"PropertyID"`
	PropertyTitle string `json:"PropertyTitle"`
}
