package auth

import "context"

var _ Checker = (*LoginChecker)(nil)
var _ Checker = (*LoginTestChecker)(nil)

// Checker tells whether the given admin session token is logged in.
type Checker interface {
	IsLogged(ctx context.Context, token string) (bool, error)
}
