package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geocoder89/marketplace/internal/domain/user"
	"github.com/geocoder89/marketplace/internal/observability"
)

type UsersRepo struct {
	store
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{store{pool: pool, prom: prom}}
}

const userColumns = `id, email, username, avatar_url, password_salt, password_hash, token, created_at, updated_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.AvatarURL,
		&u.PasswordSalt,
		&u.PasswordHash,
		&u.Token,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

// Create inserts u. The unique index on email is the only duplicate check.
func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	err := r.observe("users.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (`+userColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			u.ID, u.Email, u.Username, u.AvatarURL, u.PasswordSalt, u.PasswordHash, u.Token, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) && constraintOf(err) == "users_email_key" {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) findOne(ctx context.Context, op, where string, arg any) (user.User, error) {
	var u user.User

	err := r.observe(op, func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where+` = $1`, arg))
		return err
	})

	return u, err
}

func (r *UsersRepo) FindByToken(ctx context.Context, token string) (user.User, error) {
	return r.findOne(ctx, "users.find_by_token", "token", token)
}

func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (user.User, error) {
	return r.findOne(ctx, "users.find_by_email", "email", user.NormalizeEmail(email))
}

func (r *UsersRepo) FindByID(ctx context.Context, id string) (user.User, error) {
	return r.findOne(ctx, "users.find_by_id", "id", id)
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	out := []user.User{}

	err := r.observe("users.list", func() error {
		rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			out = append(out, u)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

// Save writes the mutable profile fields of u.
func (r *UsersRepo) Save(ctx context.Context, u user.User) (user.User, error) {
	u.UpdatedAt = time.Now().UTC()

	var out user.User

	err := r.observe("users.save", func() error {
		var err error
		out, err = scanUser(r.pool.QueryRow(ctx,
			`UPDATE users
			SET username = $2,
			    avatar_url = $3,
			    updated_at = $4
			WHERE id = $1
			RETURNING `+userColumns,
			u.ID, u.Username, u.AvatarURL, u.UpdatedAt,
		))
		return err
	})

	return out, err
}
