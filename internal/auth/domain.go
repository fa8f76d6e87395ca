package auth

import "time"

// User represents a back office account allowed to mutate stock.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}
