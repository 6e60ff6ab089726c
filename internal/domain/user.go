package domain

import "time"

// UserStatus replaces a soft-delete flag. Lookups in this service only ever see active users.
type UserStatus string

const (
	UserStatusActive  UserStatus = "active"
	UserStatusDeleted UserStatus = "deleted"
)

// User is the balance-holding account. Coin and Point are global running totals.
type User struct {
	ID        string
	FullName  string
	Phone     string
	Coin      int64
	Point     int64
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) IsActive() bool {
	return u != nil && u.Status == UserStatusActive
}
