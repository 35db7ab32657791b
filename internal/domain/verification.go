package domain

// VerificationRequest asks for a one-time code to be emailed for a property.
type VerificationRequest struct {
	Email      string `json:"email" validate:"required,emailshape"`
	PropertyID string `json:"propertyId" validate:"required"`
}

// RedeemRequest presents a code together with the token returned at issuance.
// The same shape gates deletion and contact-email disclosure.
type RedeemRequest struct {
	Email      string `json:"email" validate:"required,emailshape"`
	PropertyID string `json:"propertyId" validate:"required"`
	Code       string `json:"code" validate:"required,len=6,numeric"`
	Token      string `json:"token" validate:"required"`
}
