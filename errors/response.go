package errors

import "net/http"

// ErrorResponse is the JSON structure returned to clients:
// {"error": "Unauthorized", "message": "...", "status": 401}.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// ToResponse converts an AppError to the wire shape. The error title is
// the standard text of the HTTP status, not the machine code, so clients
// see "Unauthorized" / "Bad Request" rather than internal identifiers.
func (e *AppError) ToResponse() ErrorResponse {
	title := http.StatusText(e.HTTPStatus)
	if title == "" {
		title = string(e.Code)
	}
	return ErrorResponse{Error: title, Message: e.Message, Status: e.HTTPStatus}
}
