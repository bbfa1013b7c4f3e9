package db

import (
	"context"

	"github.com/shandysiswandi/gostore/internal/identity/entity"
	"github.com/shandysiswandi/gostore/internal/pkg/goerror"
)

const selectUser = `SELECT id, COALESCE(email, ''), COALESCE(phone, ''), password, status, created_at, updated_at
	FROM identity_users`

func (s *DB) scanUser(ctx context.Context, q Querier, where string, arg any) (*entity.User, error) {
	var u entity.User
	err := q.QueryRow(ctx, selectUser+" WHERE "+where+" = $1", arg).Scan(
		&u.ID, &u.Email, &u.Phone, &u.Password, &u.Status, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	return &u, nil
}

func (s *DB) GetUserByEmail(ctx context.Context, email string) (u *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByEmail")
	defer func() { s.endSpan(span, err) }()

	u, err = s.scanUser(ctx, s.conn, "email", email)
	return u, err
}

func (s *DB) GetUserByPhone(ctx context.Context, phone string) (u *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByPhone")
	defer func() { s.endSpan(span, err) }()

	u, err = s.scanUser(ctx, s.conn, "phone", phone)
	return u, err
}

// CreateUser returns goerror.ErrConflict when the email or phone is taken.
func (s *DB) CreateUser(ctx context.Context, q Querier, u entity.NewUser) (err error) {
	ctx, span := s.startSpan(ctx, "CreateUser")
	defer func() { s.endSpan(span, err) }()

	_, err = q.Exec(ctx,
		`INSERT INTO identity_users (id, email, phone, password, status) VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5)`,
		u.ID, u.Email, u.Phone, u.Password, u.Status,
	)
	err = s.mapError(err)
	return err
}

func (s *DB) CreateProfile(ctx context.Context, q Querier, p entity.Profile) (err error) {
	ctx, span := s.startSpan(ctx, "CreateProfile")
	defer func() { s.endSpan(span, err) }()

	_, err = q.Exec(ctx, `INSERT INTO identity_profiles (user_id, full_name) VALUES ($1, $2)`, p.UserID, p.FullName)
	err = s.mapError(err)
	return err
}

func (s *DB) UpdateUserPassword(ctx context.Context, q Querier, userID int64, hash string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserPassword")
	defer func() { s.endSpan(span, err) }()

	tag, err := q.Exec(ctx, `UPDATE identity_users SET password = $2, updated_at = now() WHERE id = $1`, userID, hash)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
	}
	return err
}
