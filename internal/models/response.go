package models

// APIResponse is a generic API response wrapper
type APIResponse struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data,omitempty"`
	Error    string      `json:"error,omitempty"`
	Errors   interface{} `json:"errors,omitempty"`
	Redirect string      `json:"redirect,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(message string) APIResponse {
	return APIResponse{
		Success: false,
		Error:   message,
	}
}

// NewValidationErrorResponse creates a validation error response
func NewValidationErrorResponse(errors map[string]string) APIResponse {
	return APIResponse{
		Success: false,
		Error:   "Validation failed",
		Errors:  errors,
	}
}

// NewRedirectResponse tells the client where to send the user instead.
func NewRedirectResponse(message, location string) APIResponse {
	return APIResponse{
		Success:  false,
		Error:    message,
		Redirect: location,
	}
}

// SessionState describes what the current session has stored.
type SessionState struct {
	SessionID       string         `json:"sessionId"`
	IsAuthenticated bool           `json:"isAuthenticated"`
	Profile         *PublicProfile `json:"profile,omitempty"`
}

// ImageUploadResponse is returned after successful image upload
type ImageUploadResponse struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
}
