package handler

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// countResponse wraps the scalar returned by the count endpoints.
type countResponse struct {
	Count int64 `json:"count"`
}
