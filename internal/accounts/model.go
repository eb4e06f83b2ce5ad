package accounts

import "time"

// Account stores one registered writer. Email is persisted lowercased so the
// duplicate check and login lookup are case-insensitive.
type Account struct {
	ID           string    `gorm:"column:id;primaryKey;size:190;not null"`
	Email        string    `gorm:"column:email;size:320;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;size:128;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	LastLoginAt  time.Time `gorm:"column:last_login_at"`
}

// TableName provides the explicit table binding for GORM.
func (Account) TableName() string {
	return "accounts"
}

// User is the client-visible identity: an opaque id plus the email it was
// registered under. Passwords never leave the accounts service.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
