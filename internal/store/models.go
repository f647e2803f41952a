package store

import "time"

// User is an API tenant. Tokens are stored as sha256 hashes; the raw token is
// returned exactly once at provisioning time.
type User struct {
	UserID    int64     `json:"user_id"`
	IDName    string    `json:"idname"`
	TokenHash string    `json:"-"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	DefDomain int64     `json:"defdomain"`
	DefLocale string    `json:"deflocale"`
	CreatedAt time.Time `json:"created_at"`
}

// Domain groups templates under one sender identity. Domain names are globally
// unique; each domain belongs to exactly one user.
type Domain struct {
	DomainID  int64     `json:"domain_id"`
	UserID    int64     `json:"user_id"`
	Domain    string    `json:"domain"`
	Sender    string    `json:"sender"`
	DefLocale string    `json:"deflocale"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}

// Template is a stored email template, unique per (user, domain, locale, name).
// Slug is derived once at creation when absent and is the cache lookup key.
type Template struct {
	TemplateID int64     `json:"template_id"`
	UserID     int64     `json:"user_id"`
	DomainID   int64     `json:"domain_id"`
	Name       string    `json:"name"`
	Locale     string    `json:"locale"`
	Body       string    `json:"body"`
	Sender     string    `json:"sender"`
	Subject    string    `json:"subject"`
	Slug       string    `json:"slug"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
