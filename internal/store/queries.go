package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgxpool.Pool the queries need; satisfied by a pool,
// a single connection, or a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Querier lets handlers and the cache preload be tested against a stub store.
type Querier interface {
	CreateUser(ctx context.Context, arg CreateUserParams) (User, error)
	GetUserByID(ctx context.Context, userID int64) (User, error)
	GetUserByTokenHash(ctx context.Context, tokenHash string) (User, error)
	UpsertDomain(ctx context.Context, arg UpsertDomainParams) (Domain, error)
	GetDomainByID(ctx context.Context, domainID int64) (Domain, error)
	GetDomainByName(ctx context.Context, name string) (Domain, error)
	ListDomains(ctx context.Context) ([]Domain, error)
	UpsertTemplate(ctx context.Context, arg UpsertTemplateParams) (Template, bool, error)
	GetTemplate(ctx context.Context, arg GetTemplateParams) (Template, error)
	ListTemplates(ctx context.Context) ([]Template, error)
}

var _ Querier = (*Queries)(nil)

const userColumns = `user_id, idname, token_hash, name, email, defdomain, deflocale, created_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.UserID, &u.IDName, &u.TokenHash, &u.Name, &u.Email, &u.DefDomain, &u.DefLocale, &u.CreatedAt)
	return u, err
}

type CreateUserParams struct {
	IDName    string
	TokenHash string
	Name      string
	Email     string
	DefLocale string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO users (idname, token_hash, name, email, deflocale)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		arg.IDName, arg.TokenHash, arg.Name, arg.Email, arg.DefLocale)
	return scanUser(row)
}

func (q *Queries) GetUserByID(ctx context.Context, userID int64) (User, error) {
	row := q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID)
	return scanUser(row)
}

func (q *Queries) GetUserByTokenHash(ctx context.Context, tokenHash string) (User, error) {
	row := q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE token_hash = $1`, tokenHash)
	return scanUser(row)
}

const domainColumns = `domain_id, user_id, domain, sender, deflocale, is_default, created_at`

func scanDomain(row pgx.Row) (Domain, error) {
	var d Domain
	err := row.Scan(&d.DomainID, &d.UserID, &d.Domain, &d.Sender, &d.DefLocale, &d.IsDefault, &d.CreatedAt)
	return d, err
}

type UpsertDomainParams struct {
	UserID    int64
	Domain    string
	Sender    string
	DefLocale string
	IsDefault bool
}

// UpsertDomain inserts or updates a domain by its unique name. Ownership never
// transfers on conflict; the update applies only when the row belongs to the
// same user, so a foreign name collision surfaces as pgx.ErrNoRows.
func (q *Queries) UpsertDomain(ctx context.Context, arg UpsertDomainParams) (Domain, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO domains (user_id, domain, sender, deflocale, is_default)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (domain) DO UPDATE
		SET sender = EXCLUDED.sender, deflocale = EXCLUDED.deflocale, is_default = EXCLUDED.is_default
		WHERE domains.user_id = EXCLUDED.user_id
		RETURNING `+domainColumns,
		arg.UserID, arg.Domain, arg.Sender, arg.DefLocale, arg.IsDefault)
	return scanDomain(row)
}

func (q *Queries) GetDomainByID(ctx context.Context, domainID int64) (Domain, error) {
	row := q.db.QueryRow(ctx, `SELECT `+domainColumns+` FROM domains WHERE domain_id = $1`, domainID)
	return scanDomain(row)
}

func (q *Queries) GetDomainByName(ctx context.Context, name string) (Domain, error) {
	row := q.db.QueryRow(ctx, `SELECT `+domainColumns+` FROM domains WHERE domain = $1`, name)
	return scanDomain(row)
}

func (q *Queries) ListDomains(ctx context.Context) ([]Domain, error) {
	rows, err := q.db.Query(ctx, `SELECT `+domainColumns+` FROM domains ORDER BY domain_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var domains []Domain
	for rows.Next() {
		d, err := scanDomain(rows)
		if err != nil {
			return nil, err
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

const templateColumns = `template_id, user_id, domain_id, name, locale, body, sender, subject, slug, created_at, updated_at`

func scanTemplate(row pgx.Row) (Template, error) {
	var t Template
	err := row.Scan(&t.TemplateID, &t.UserID, &t.DomainID, &t.Name, &t.Locale,
		&t.Body, &t.Sender, &t.Subject, &t.Slug, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

type UpsertTemplateParams struct {
	UserID   int64
	DomainID int64
	Name     string
	Locale   string
	Body     string
	Sender   string
	Subject  string
	Slug     string
}

// UpsertTemplate inserts or replaces the template at its unique
// (user_id, domain_id, locale, name) key. The slug is derived from locale and
// name when the caller leaves it empty, and is kept stable on update. The
// second return value reports whether a new row was created.
func (q *Queries) UpsertTemplate(ctx context.Context, arg UpsertTemplateParams) (Template, bool, error) {
	if arg.Slug == "" {
		arg.Slug = Slug(arg.Locale, arg.Name)
	}
	row := q.db.QueryRow(ctx, `
		INSERT INTO templates (user_id, domain_id, name, locale, body, sender, subject, slug)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, domain_id, locale, name) DO UPDATE
		SET body = EXCLUDED.body, sender = EXCLUDED.sender, subject = EXCLUDED.subject, updated_at = now()
		RETURNING `+templateColumns+`, (xmax = 0) AS created`,
		arg.UserID, arg.DomainID, arg.Name, arg.Locale, arg.Body, arg.Sender, arg.Subject, arg.Slug)

	var t Template
	var created bool
	err := row.Scan(&t.TemplateID, &t.UserID, &t.DomainID, &t.Name, &t.Locale,
		&t.Body, &t.Sender, &t.Subject, &t.Slug, &t.CreatedAt, &t.UpdatedAt, &created)
	return t, created, err
}

type GetTemplateParams struct {
	UserID   int64
	DomainID int64
	Locale   string
	Name     string
}

func (q *Queries) GetTemplate(ctx context.Context, arg GetTemplateParams) (Template, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+templateColumns+` FROM templates
		WHERE user_id = $1 AND domain_id = $2 AND locale = $3 AND name = $4`,
		arg.UserID, arg.DomainID, arg.Locale, arg.Name)
	return scanTemplate(row)
}

func (q *Queries) ListTemplates(ctx context.Context) ([]Template, error) {
	rows, err := q.db.Query(ctx, `SELECT `+templateColumns+` FROM templates ORDER BY template_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}
