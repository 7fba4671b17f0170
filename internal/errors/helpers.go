package errors

import "net/http"

// HTTPStatusCode maps error codes to appropriate HTTP status codes
func HTTPStatusCode(err error) int {
	switch GetCode(err) {
	case ErrCodeImportRejected, ErrCodeInvalidInput, ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case ErrCodeArchiveUnreadable, ErrCodeTranscriptMissing:
		return http.StatusUnprocessableEntity
	case ErrCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// HTTPErrorResponse is the JSON body of every API error.
type HTTPErrorResponse struct {
	Error string    `json:"error"`
	Code  ErrorCode `json:"code"`
}

// ToHTTPResponse converts an error to its API body. Only the user message
// leaves the process.
func ToHTTPResponse(err error) HTTPErrorResponse {
	return HTTPErrorResponse{
		Error: GetUserMessage(err),
		Code:  GetCode(err),
	}
}
