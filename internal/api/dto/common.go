package dto

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

// ListResponse wraps collection endpoints with the item count.
type ListResponse struct {
	Count int         `json:"count"`
	Data  interface{} `json:"data"`
}
