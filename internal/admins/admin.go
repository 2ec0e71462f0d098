package admins

import "time"

// Admin is the single administrative role of the website. The password hash
// never leaves the server.
type Admin struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
