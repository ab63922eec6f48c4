package storage

import "time"

// Link is a short code bound to the original URL it redirects to.
type Link struct {
	Code      string    `json:"shortCode"`
	Original  string    `json:"originalUrl"`
	Clicks    int64     `json:"clicks"`
	CreatedAt time.Time `json:"createdAt"`
}

// Admin is a stored admin credential. PasswordHash is a bcrypt hash.
type Admin struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}
