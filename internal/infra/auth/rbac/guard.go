// Package rbac holds the pure authorization predicates. Nothing here does
// I/O: callers fetch the role and permission sets first and evaluate them
// against an already-resolved tenant context.
package rbac

import "errors"

type AuthzError struct {
	Code string
	Err  error
}

func (e *AuthzError) Error() string {
	if e == nil {
		return ""
	}
	return e.Code
}

func (e *AuthzError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func IsAuthzError(err error) (*AuthzError, bool) {
	var authz *AuthzError
	if errors.As(err, &authz) {
		return authz, true
	}
	return nil, false
}

func HasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func HasAnyRole(roles []string, wanted ...string) bool {
	for _, w := range wanted {
		if HasRole(roles, w) {
			return true
		}
	}
	return false
}

func HasPermission(permissions []string, permission string) bool {
	if permission == "" {
		return false
	}
	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func HasAnyPermission(permissions []string, wanted ...string) bool {
	for _, w := range wanted {
		if HasPermission(permissions, w) {
			return true
		}
	}
	return false
}
