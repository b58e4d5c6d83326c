package httpdto

// WebhookConfirmationRequest is the platform's delivery-confirmation
// payload. Dispatch and confirmation ids are present only when the
// platform still holds them for the send.
type WebhookConfirmationRequest struct {
	RecipientID      string `json:"recipient_id" binding:"required"`
	ConfirmationType string `json:"confirmation_type" binding:"required"`
	DispatchID       string `json:"dispatch_id"`
	ConfirmationID   string `json:"confirmation_id"`
	Timestamp        int64  `json:"timestamp"` // unix millis, platform send time
	HomeName         string `json:"home_name"`
	AwayName         string `json:"away_name"`
	Category         string `json:"category"`
}

// WebhookConfirmationResponse reports how the confirmation was matched.
type WebhookConfirmationResponse struct {
	Matched    bool   `json:"matched"`
	Method     string `json:"method"`
	Confidence string `json:"confidence"`
	FixtureID  string `json:"fixture_id,omitempty"`
	Ambiguous  bool   `json:"ambiguous,omitempty"`
}
