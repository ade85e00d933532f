package entity

import "time"

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleHost    Role = "HOST"
	RoleTourist Role = "TOURIST"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleHost, RoleTourist:
		return true
	}
	return false
}

type UserStatus string

const (
	UserActive  UserStatus = "ACTIVE"
	UserBlocked UserStatus = "BLOCKED"
)

func (s UserStatus) Valid() bool {
	return s == UserActive || s == UserBlocked
}

type User struct {
	ID             string     `json:"id" db:"user_id"`
	Name           string     `json:"name" db:"name"`
	Email          string     `json:"email" db:"email"`
	PasswordHash   string     `json:"-" db:"password_hash"`
	Role           Role       `json:"role" db:"role"`
	Status         UserStatus `json:"status" db:"status"`
	TelegramChatID *int64     `json:"telegram_chat_id,omitempty" db:"telegram_chat_id"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type UserFilter struct {
	Role   Role
	Status UserStatus
	Query  string
}
