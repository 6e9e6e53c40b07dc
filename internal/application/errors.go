package application

import "errors"

var (
	// ErrUnauthenticated is returned when no resolved principal accompanies a call.
	ErrUnauthenticated = errors.New("application: unauthenticated")
	// ErrForbidden is returned when the acting principal's role does not allow the operation.
	ErrForbidden = errors.New("application: forbidden")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrEmailTaken is returned when a signup reuses an existing email.
	ErrEmailTaken = errors.New("application: email already exists")
	// ErrInvalidCredentials is returned when login credentials do not match.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrGoogleAccount is returned when a password login targets an account
	// that was switched to Google sign-in.
	ErrGoogleAccount = errors.New("application: account uses Google login")
	// ErrLastOwner is returned when a role change or removal would leave a
	// calendar without any OWNER.
	ErrLastOwner = errors.New("application: cannot remove the last owner")
	// ErrInviteNotPending is returned when accept or decline targets an invite
	// that already left the PENDING state.
	ErrInviteNotPending = errors.New("application: invite is not pending")
	// ErrInviteExpired is returned when accept or decline targets an invite
	// past its expiry.
	ErrInviteExpired = errors.New("application: invite has expired")
	// ErrInviteEmailMismatch is returned when the acting principal's email does
	// not match the invitee email.
	ErrInviteEmailMismatch = errors.New("application: invite email mismatch")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
