package helpers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Stable machine-readable error codes returned alongside HTTP statuses.
const (
	CodeInvalidRequest         = "INVALID_REQUEST"
	CodeNotFoundUser           = "NOT_FOUND_USER"
	CodeNotFoundActivity       = "NOT_FOUND_ACTIVITY"
	CodeNotFoundPayment        = "NOT_FOUND_PAYMENT"
	CodeNotFoundTicket         = "NOT_FOUND_TICKET"
	CodeRegistrationNotStarted = "REGISTRATION_NOT_STARTED"
	CodeRegistrationClosed     = "REGISTRATION_CLOSED"
	CodeRegistrationFull       = "REGISTRATION_FULL"
	CodeTicketUsed             = "TICKET_USED"
	CodeForbidden              = "FORBIDDEN"
	CodeCheckMacFailed         = "CHECK_MAC_FAILED"
	CodeCheckoutFailed         = "CHECKOUT_FAILED"
	CodeCreateFailed           = "CREATE_FAILED"
	CodeInternalError          = "INTERNAL_ERROR"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// AppError is an operational error carrying an HTTP status and a stable code.
type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(status int, code, message string) *AppError {
	return &AppError{Status: status, Code: code, Message: message}
}

// AsAppError unwraps err into an *AppError if it is one.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func RespondWithError(c *gin.Context, statusCode int, customMessage string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: customMessage,
	})
}

// RespondWithAppError renders an AppError with its code, and hides the detail
// of anything unexpected behind a generic 500.
func RespondWithAppError(c *gin.Context, err error) {
	if appErr, ok := AsAppError(err); ok {
		c.JSON(appErr.Status, ErrorResponse{
			Error:   http.StatusText(appErr.Status),
			Code:    appErr.Code,
			Message: appErr.Message,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   http.StatusText(http.StatusInternalServerError),
		Code:    CodeInternalError,
		Message: "Something went wrong. Please try again later.",
	})
}
