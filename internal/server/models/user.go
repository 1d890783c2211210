// Package models holds plain records shared by repositories and services.
// They carry no persistence behaviour.
package models

import "time"

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	ImageFile    string
	CreatedAt    time.Time
}
