package dtos

type ReviewPassRequest struct {
	Notes string `json:"notes" validate:"max=500"`
}

type RevokePassRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}
