package models

import "time"

// User is a row of the users table.
type User struct {
	ID        string    `db:"id"`
	FullName  string    `db:"full_name"`
	Phone     string    `db:"phone"`
	Coin      int64     `db:"coin"`
	Point     int64     `db:"point"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
