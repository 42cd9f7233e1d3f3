package models

import "time"

type User struct {
	ID        int32
	Name      string
	Email     string
	IsActive  bool
	CreatedAt time.Time
}
