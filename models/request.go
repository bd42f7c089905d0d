package models

// QueryRequest is the body of POST /get/response.
type QueryRequest struct {
	Question string `json:"question"`
}
