// Package models holds the persistent entities of the shelterauth server.
package models

import "time"

type User struct {
	ID           string
	Email        string
	UserName     string
	PasswordHash string
	CreatedAt    time.Time
}
