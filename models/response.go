package models

// QueryResponse is returned when a question was answered from retrieved context.
type QueryResponse struct {
	Question string `json:"question"`
	Response string `json:"response"`
}

// ErrorResponse is the uniform failure body of the HTTP API.
type ErrorResponse struct {
	Error string `json:"error"`
}

// IndexStatsResponse reports how many records the configured namespace holds.
type IndexStatsResponse struct {
	Namespace string `json:"namespace"`
	Records   int    `json:"records"`
}
