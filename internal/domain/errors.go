package domain

import "errors"

// Kind is the machine-checkable class of a failure.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindUnauthorized    Kind = "unauthorized"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindAlreadyRedeemed Kind = "already_redeemed"
	KindPrecondition    Kind = "precondition"
	KindTransport       Kind = "transport"
	KindInternal        Kind = "internal"
)

// Error is a coded domain error. Two errors match under errors.Is when
// their codes are equal, so wrapped copies still compare to the sentinels.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	// Fields holds per-field messages for validation failures.
	Fields map[string]string
	Cause  error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a coded error.
func NewError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// ValidationError creates a validation failure carrying field messages.
func ValidationError(fields map[string]string) *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    ErrValidation.Code,
		Message: ErrValidation.Message,
		Fields:  fields,
	}
}

// TransportError wraps a boundary failure (network, unexpected response).
func TransportError(message string, cause error) *Error {
	return &Error{
		Kind:    KindTransport,
		Code:    ErrTransport.Code,
		Message: message,
		Cause:   cause,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// FieldErrors returns the field messages carried by err, if any.
func FieldErrors(err error) map[string]string {
	var de *Error
	if errors.As(err, &de) {
		return de.Fields
	}
	return nil
}

var (
	ErrValidation = NewError(KindValidation, "validation_failed", "validation failed")

	ErrUnauthorized       = NewError(KindUnauthorized, "unauthorized", "unauthorized")
	ErrInvalidCredentials = NewError(KindUnauthorized, "invalid_credentials", "invalid username or password")
	ErrSessionExpired     = NewError(KindUnauthorized, "session_expired", "session expired")
	ErrForbidden          = NewError(KindForbidden, "forbidden", "forbidden")

	ErrDuplicateRequestOpen = NewError(KindConflict, "duplicate_request_open", "a duplicate request is already open for this ticket")
	ErrTicketAlreadySold    = NewError(KindConflict, "ticket_already_sold", "ticket has an active sale")
	ErrResolutionNotFound   = NewError(KindNotFound, "resolution_not_found", "duplicate resolution request not found")
	ErrResolutionExpired    = NewError(KindConflict, "resolution_expired", "duplicate resolution request expired")
	ErrAlreadyRedeemed      = NewError(KindAlreadyRedeemed, "already_redeemed", "ticket has already been redeemed")
	ErrEventNotActive       = NewError(KindPrecondition, "event_not_active", "event day is not active")
	ErrTicketNotSold        = NewError(KindPrecondition, "ticket_not_sold", "ticket has no matching sale")
	ErrInvalidIssueType     = NewError(KindValidation, "invalid_issue_type", "issue type must be one of duplicate, invalid, fraud, refund, other")
	ErrReporterRequired     = NewError(KindValidation, "reporter_required", "reporter name is required")
	ErrInvalidRole          = NewError(KindValidation, "invalid_role", "role must be EXEC or ADMIN")
	ErrUsernameRequired     = NewError(KindValidation, "username_required", "username is required")
	ErrPasswordRequired     = NewError(KindValidation, "password_required", "password is required")
	ErrDisplayNameRequired  = NewError(KindValidation, "display_name_required", "display name is required")
	ErrStaffNotFound        = NewError(KindNotFound, "staff_not_found", "staff member not found")

	ErrTransport = NewError(KindTransport, "transport_error", "request to server failed")
	ErrInternal  = NewError(KindInternal, "internal_error", "internal error")
)

var knownErrors = []*Error{
	ErrValidation,
	ErrUnauthorized,
	ErrInvalidCredentials,
	ErrSessionExpired,
	ErrForbidden,
	ErrDuplicateRequestOpen,
	ErrTicketAlreadySold,
	ErrResolutionNotFound,
	ErrResolutionExpired,
	ErrAlreadyRedeemed,
	ErrEventNotActive,
	ErrTicketNotSold,
	ErrInvalidIssueType,
	ErrReporterRequired,
	ErrInvalidRole,
	ErrUsernameRequired,
	ErrPasswordRequired,
	ErrDisplayNameRequired,
	ErrStaffNotFound,
	ErrTransport,
	ErrInternal,
}

// ErrorFromCode rebuilds a domain error from a wire code. Unknown codes
// become KindInternal errors that keep the given message.
func ErrorFromCode(code, message string) *Error {
	for _, known := range knownErrors {
		if known.Code == code {
			if message == "" {
				message = known.Message
			}
			return &Error{Kind: known.Kind, Code: known.Code, Message: message}
		}
	}
	if message == "" {
		message = ErrInternal.Message
	}
	return &Error{Kind: KindInternal, Code: code, Message: message}
}
