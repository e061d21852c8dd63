package models

// User represents a row in the PostgreSQL users table.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"` // bcrypt hash, never serialize
	IsAdmin  bool   `json:"is_admin"`
}
