package models

// User is a registered account. ID is assigned by the store, is always
// positive and is never reused. PasswordHash is a bcrypt hash that embeds
// its own salt and cost.
type User struct {
	ID           int64  `json:"id"`
	UserName     string `json:"username"`
	PasswordHash string `json:"passwordHash"`
}
