package routes

const (
	// Health
	Health = "/health"

	// Inbound chat messages (Twilio webhook)
	InboundMessage = "/webhook/twilio/message"

	// Gate / kiosk redemption
	PassesRedeem = "/api/v1/passes/redeem"

	// Oversight endpoints
	AdminPasses       = "/api/v1/admin/passes"
	AdminPassesReview = "/api/v1/admin/passes/{id}/review"
	AdminPassesRevoke = "/api/v1/admin/passes/{id}/revoke"
)
