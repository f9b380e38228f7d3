package domain

import "context"

// Identity is a verified session identity returned by the external session
// verifier. Email and Phone are optional.
type Identity struct {
	UserID string
	Email  string
	Phone  string
}

type Authenticator interface {
	Authenticate(ctx context.Context, bearerToken string) (Identity, error)
}
