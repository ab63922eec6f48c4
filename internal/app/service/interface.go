package service

//go:generate mockgen -source=interface.go -destination=../../mocks/mock_service.go -package=mocks

import (
	"context"

	"github.com/atinyakov/clickshort/internal/models"
	"github.com/atinyakov/clickshort/internal/storage"
)

// LinkStore is the durable code -> link mapping.
type LinkStore interface {
	FindByOriginal(ctx context.Context, original string) (*storage.Link, error)
	FindByCode(ctx context.Context, code string) (*storage.Link, error)
	Insert(ctx context.Context, original, code string) (*storage.Link, error)
	IncrementClicks(ctx context.Context, code string) (int64, error)
	ListAll(ctx context.Context) ([]storage.Link, error)
	PingContext(ctx context.Context) error
}

// AdminStore holds admin credentials.
type AdminStore interface {
	FindAdmin(ctx context.Context, username string) (*storage.Admin, error)
	CreateAdmin(ctx context.Context, a storage.Admin) error
}

// URLCache caches code -> original URL for redirects.
type URLCache interface {
	Get(ctx context.Context, code string) (string, error)
	Set(ctx context.Context, code, original string) error
}

// ClickRetrier re-applies click increments that failed on the redirect path.
type ClickRetrier interface {
	Enqueue(code string)
}

// CodeGenerator issues candidate short codes. It does not reserve them.
type CodeGenerator interface {
	Generate() (string, error)
}

// URLServiceIface is what the HTTP handlers need from the link service.
type URLServiceIface interface {
	Shorten(ctx context.Context, rawURL string) (*storage.Link, error)
	Resolve(ctx context.Context, code string) (string, error)
	Summarize(ctx context.Context) (*models.Stats, error)
	Overview(ctx context.Context) (*models.AdminURLsResponse, error)
	ShortURL(code string) string
	PingContext(ctx context.Context) error
}

// AuthIface issues and verifies admin tokens.
type AuthIface interface {
	Login(ctx context.Context, username, password string) (string, error)
	ParseToken(token string) (*Claims, error)
}
