package models

type User struct {
	ID           string `json:"id" db:"id"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	CreatedAt    string `json:"created_at" db:"created_at"`
}

// Identity links a federated provider account to a user.
type Identity struct {
	Provider  string `json:"provider" db:"provider"`
	Subject   string `json:"subject" db:"subject"`
	UserID    string `json:"user_id" db:"user_id"`
	Email     string `json:"email" db:"email"`
	CreatedAt string `json:"created_at" db:"created_at"`
}
