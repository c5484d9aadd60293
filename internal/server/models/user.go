// Package models defines server-side data models persisted in the database.
package models

import "time"

type User struct {
	ID        string    `db:"id"`
	Phone     string    `db:"phone"`
	Nickname  string    `db:"nickname"`
	Avatar    string    `db:"avatar"`
	Signature string    `db:"signature"`
	CreatedAt time.Time `db:"created_at"`
}
