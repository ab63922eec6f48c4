// Package models defines the request and response bodies of the HTTP API
// consumed by the presentation layer.
package models

import "github.com/atinyakov/clickshort/internal/storage"

// ShortenRequest is the body of POST /api/shorten.
type ShortenRequest struct {
	OriginalURL string `json:"originalUrl"`
}

// ShortenResponse describes a short link, new or previously created.
type ShortenResponse struct {
	OriginalURL string `json:"originalUrl"`
	ShortCode   string `json:"shortCode"`
	ShortURL    string `json:"shortUrl"`
}

// LoginRequest is the body of POST /api/admin/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the signed admin token.
type LoginResponse struct {
	Token string `json:"token"`
}

// AdminURLsResponse is the admin listing with its aggregate statistics.
type AdminURLsResponse struct {
	URLs  []storage.Link `json:"urls"`
	Stats Stats          `json:"stats"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}
