package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/leave-engine/internal/domain/employee"
	"github.com/cmlabs-hris/leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/leave-engine/internal/domain/user"
	"github.com/cmlabs-hris/leave-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Leave domain errors carry their own code and class
	var leaveErr *leave.Error
	if errors.As(err, &leaveErr) {
		DomainError(w, statusForClass(leaveErr.Class), leaveErr.Code, leaveErr.Message)
		return
	}

	switch {
	case errors.Is(err, employee.ErrEmployeeNotFound):
		DomainError(w, http.StatusNotFound, leave.ErrEmployeeNotFound.Code, leave.ErrEmployeeNotFound.Message)
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrInvalidRole):
		Unauthorized(w, "Token carries an unknown role")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, err.Error())
	case errors.Is(err, user.ErrOrganizationIDRequired):
		Forbidden(w, "Organization ID not found in token")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}

func statusForClass(c leave.Class) int {
	switch c {
	case leave.ClassBadRequest:
		return http.StatusBadRequest
	case leave.ClassNotFound:
		return http.StatusNotFound
	case leave.ClassConflict:
		return http.StatusConflict
	case leave.ClassForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
