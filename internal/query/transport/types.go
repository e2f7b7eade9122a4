package transport

// ErrorResponse is the body of every failed query.
type ErrorResponse struct {
	Error string `json:"error"`
}
