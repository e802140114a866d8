package dto

// ErrorResponse cuerpo de error HTTP. Code es estable (VALIDATION, NOT_FOUND, RETRY, ...);
// Message es para humanos.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
