package membership

import (
	"fmt"

	"github.com/platinummonkey/warden/pkg/perm"
)

// NotAuthorizedError indicates a structurally invalid membership
// request (wrong role scope for a group reference, or primary
// ownership granted through a group). Permanent for the given input.
type NotAuthorizedError struct {
	Reference Reference
	RoleScope perm.Scope
	RoleName  string
	Reason    string
}

func (e *NotAuthorizedError) Error() string {
	return fmt.Sprintf("membership on %s with role %s_%s not authorized: %s",
		e.Reference, e.RoleScope, e.RoleName, e.Reason)
}

// AlreadyPrimaryOwnerError indicates the requested change would
// silently strip primary ownership from the user. Ownership transfer
// is a separate, explicit flow.
type AlreadyPrimaryOwnerError struct {
	UserID    string
	Reference Reference
}

func (e *AlreadyPrimaryOwnerError) Error() string {
	return fmt.Sprintf("user %s is primary owner of %s; ownership cannot be downgraded here",
		e.UserID, e.Reference)
}

// TechnicalError wraps a storage or collaborator failure. The engine
// never retries these itself.
type TechnicalError struct {
	Op  string
	Err error
}

func (e *TechnicalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}
