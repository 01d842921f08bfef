package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pkghub/gallery-idm/pkg/credential"
	"github.com/pkghub/gallery-idm/pkg/verification"
)

// PostgresUserRepository implements UserRepository using PostgreSQL
type PostgresUserRepository struct {
	db *pgxpool.Pool
}

// NewPostgresUserRepository creates a new PostgreSQL-based user repository
func NewPostgresUserRepository(db *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const userColumns = `
	id, username, email_address, unconfirmed_email_address,
	email_confirmation_token, email_confirmation_expires_at,
	password_reset_token, password_reset_expires_at,
	version, created_at
`

func (r *PostgresUserRepository) scanUser(ctx context.Context, row pgx.Row) (User, error) {
	var usr User
	var emailAddress, unconfirmedEmail, confirmToken, resetToken *string
	var confirmExpires, resetExpires *time.Time

	err := row.Scan(
		&usr.ID,
		&usr.Username,
		&emailAddress,
		&unconfirmedEmail,
		&confirmToken,
		&confirmExpires,
		&resetToken,
		&resetExpires,
		&usr.Version,
		&usr.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}

	if emailAddress != nil {
		usr.EmailAddress = *emailAddress
	}
	if unconfirmedEmail != nil {
		usr.UnconfirmedEmailAddress = *unconfirmedEmail
	}
	if confirmToken != nil && confirmExpires != nil {
		usr.EmailConfirmationToken = verification.Token{
			Value:     *confirmToken,
			Purpose:   verification.PurposeEmailConfirmation,
			ExpiresAt: *confirmExpires,
		}
	}
	if resetToken != nil && resetExpires != nil {
		usr.PasswordResetToken = verification.Token{
			Value:     *resetToken,
			Purpose:   verification.PurposePasswordReset,
			ExpiresAt: *resetExpires,
		}
	}

	if err := r.loadCredentials(ctx, &usr); err != nil {
		return User{}, err
	}
	return usr, nil
}

func (r *PostgresUserRepository) loadCredentials(ctx context.Context, usr *User) error {
	rows, err := r.db.Query(ctx, `
		SELECT type, value, created_at, expires_at
		FROM credentials
		WHERE user_id = $1
		ORDER BY created_at
	`, usr.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cred credential.Credential
		var expires *time.Time
		if err := rows.Scan(&cred.Type, &cred.Value, &cred.Created, &expires); err != nil {
			return err
		}
		if expires != nil {
			cred.Expires = *expires
		}
		usr.Credentials = append(usr.Credentials, cred)
	}
	return rows.Err()
}

// GetByID returns a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return r.scanUser(ctx, row)
}

// FindByUsername finds a user by username, case-insensitively
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER($1)`, username)
	return r.scanUser(ctx, row)
}

// FindByConfirmedEmail finds a user by confirmed email, case-insensitively
func (r *PostgresUserRepository) FindByConfirmedEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email_address IS NOT NULL AND LOWER(email_address) = LOWER($1)
	`, email)
	return r.scanUser(ctx, row)
}

// FindByUsernameOrEmail resolves a login identifier
func (r *PostgresUserRepository) FindByUsernameOrEmail(ctx context.Context, identifier string) (User, error) {
	usr, err := r.FindByUsername(ctx, identifier)
	if err == nil {
		return usr, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return User{}, err
	}
	return r.FindByConfirmedEmail(ctx, identifier)
}

// Create stores a new user and its credentials
func (r *PostgresUserRepository) Create(ctx context.Context, usr User) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if usr.Version == 0 {
		usr.Version = 1
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO users (
			id, username, email_address, unconfirmed_email_address,
			email_confirmation_token, email_confirmation_expires_at,
			password_reset_token, password_reset_expires_at,
			version, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		usr.ID,
		usr.Username,
		nullIfEmpty(usr.EmailAddress),
		nullIfEmpty(usr.UnconfirmedEmailAddress),
		nullIfEmpty(usr.EmailConfirmationToken.Value),
		nullIfZeroTime(usr.EmailConfirmationToken.ExpiresAt),
		nullIfEmpty(usr.PasswordResetToken.Value),
		nullIfZeroTime(usr.PasswordResetToken.ExpiresAt),
		usr.Version,
		usr.CreatedAt,
	)
	if err != nil {
		return err
	}

	if err := insertCredentials(ctx, tx, usr); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Save persists the aggregate guarded by the version column. A zero-row
// update means the stored version moved underneath us.
func (r *PostgresUserRepository) Save(ctx context.Context, usr User, expectedVersion int64) (User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return User{}, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE users
		SET username = $2,
		    email_address = $3,
		    unconfirmed_email_address = $4,
		    email_confirmation_token = $5,
		    email_confirmation_expires_at = $6,
		    password_reset_token = $7,
		    password_reset_expires_at = $8,
		    version = version + 1
		WHERE id = $1 AND version = $9
	`,
		usr.ID,
		usr.Username,
		nullIfEmpty(usr.EmailAddress),
		nullIfEmpty(usr.UnconfirmedEmailAddress),
		nullIfEmpty(usr.EmailConfirmationToken.Value),
		nullIfZeroTime(usr.EmailConfirmationToken.ExpiresAt),
		nullIfEmpty(usr.PasswordResetToken.Value),
		nullIfZeroTime(usr.PasswordResetToken.ExpiresAt),
		expectedVersion,
	)
	if err != nil {
		return User{}, err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, usr.ID).Scan(&exists); err != nil {
			return User{}, err
		}
		if !exists {
			return User{}, ErrUserNotFound
		}
		return User{}, ErrConcurrencyConflict
	}

	_, err = tx.Exec(ctx, `DELETE FROM credentials WHERE user_id = $1`, usr.ID)
	if err != nil {
		return User{}, err
	}
	if err := insertCredentials(ctx, tx, usr); err != nil {
		return User{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return User{}, err
	}

	usr.Version = expectedVersion + 1
	return usr, nil
}

func insertCredentials(ctx context.Context, tx pgx.Tx, usr User) error {
	for _, cred := range usr.Credentials {
		_, err := tx.Exec(ctx, `
			INSERT INTO credentials (user_id, type, value, created_at, expires_at)
			VALUES ($1, $2, $3, $4, $5)
		`, usr.ID, cred.Type, cred.Value, cred.Created, nullIfZeroTime(cred.Expires))
		if err != nil {
			return fmt.Errorf("failed to insert credential %s: %w", cred.Type, err)
		}
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullIfZeroTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
