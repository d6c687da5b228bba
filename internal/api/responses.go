package api

// Shared response envelopes for the swagger docs.

type ErrorResponse struct {
	Error string `json:"error" example:"Bet not found"`
}

type MessageResponse struct {
	Message string `json:"message" example:"Vote recorded"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

type QueueStatusResponse struct {
	Queued int64 `json:"queued" example:"3"`
}
