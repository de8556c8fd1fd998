package model

import "time"

// Role names stored in users.role. Authorization compares them with strict
// equality; RoleAdmin does not imply RoleUser.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an application user record as stored in the `users`
// table. The auth layer treats it as the resolved identity of a bearer
// token: it is looked up by Username on every authenticated request and
// never mutated by the guard itself.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Username     – unique login name, 3 to 50 characters.
//	PasswordHash – bcrypt digest (salt embedded).
//	Role         – "user" by default, "admin" for operators.
//	CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
