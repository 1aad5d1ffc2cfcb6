package handler

// The inventory API wraps every error in a code/message envelope so clients
// can branch on the code. The extraction surface does not use this; its
// contract is a flat {"error": "..."} body.

const (
	codeBadRequest    = "bad_request"
	codeConflict      = "conflict"
	codeNotFound      = "not_found"
	codeDBUnavailable = "db_unavailable"
	codeInternal      = "internal_error"
)

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}
