package leave

// Class is a transport-agnostic status class for a leave error.
type Class string

const (
	ClassBadRequest Class = "bad_request"
	ClassNotFound   Class = "not_found"
	ClassConflict   Class = "conflict"
	ClassForbidden  Class = "forbidden"
)

// Error is a leave domain error with a stable code.
type Error struct {
	Code    string
	Class   Class
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code string, class Class, message string) *Error {
	return &Error{Code: code, Class: class, Message: message}
}

// Leave domain errors
var (
	ErrInvalidLeaveType        = newError("INVALID_LEAVE_TYPE", ClassBadRequest, "leave type has no policy allocation")
	ErrLeaveOverlap            = newError("LEAVE_OVERLAP", ClassConflict, "leave overlaps an approved leave request")
	ErrInsufficientBalance     = newError("INSUFFICIENT_BALANCE", ClassBadRequest, "insufficient leave balance")
	ErrLeaveNotFound           = newError("LEAVE_NOT_FOUND", ClassNotFound, "leave request not found")
	ErrLeaveInvalidState       = newError("LEAVE_INVALID_STATE", ClassConflict, "leave request is not in a state that allows this action")
	ErrSelfApprovalForbidden   = newError("SELF_APPROVAL_FORBIDDEN", ClassForbidden, "cannot approve or reject your own leave request")
	ErrInsufficientPermissions = newError("INSUFFICIENT_PERMISSIONS", ClassForbidden, "your role cannot decide on this leave request")
	ErrLeaveAlreadyCancelled   = newError("LEAVE_ALREADY_CANCELLED", ClassConflict, "leave request already cancelled")
	ErrEmployeeNotFound        = newError("EMPLOYEE_NOT_FOUND", ClassNotFound, "employee profile not found")
)
