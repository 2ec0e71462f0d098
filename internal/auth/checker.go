package auth

import "context"

var _ Checker = (*Manager)(nil)

// Checker is what the HTTP layer needs to answer "who is this token".
type Checker interface {
	SessionAdminID(ctx context.Context, token string) (adminID int, found bool, err error)
}
