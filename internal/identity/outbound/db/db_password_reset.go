package db

import (
	"context"
	"time"

	"github.com/shandysiswandi/gostore/internal/identity/entity"
	"github.com/shandysiswandi/gostore/internal/pkg/goerror"
)

func (s *DB) CreatePasswordReset(ctx context.Context, pr entity.PasswordReset) (err error) {
	ctx, span := s.startSpan(ctx, "CreatePasswordReset")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`INSERT INTO identity_password_resets (id, user_id, token_hash, expires_at) VALUES ($1, $2, $3, $4)`,
		pr.ID, pr.UserID, pr.TokenHash, pr.ExpiresAt,
	)
	err = s.mapError(err)
	return err
}

// UsePasswordReset marks the token used. It returns goerror.ErrNotFound when
// the token does not belong to userID, has expired or was already used.
func (s *DB) UsePasswordReset(ctx context.Context, q Querier, userID int64, tokenHash string, now time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "UsePasswordReset")
	defer func() { s.endSpan(span, err) }()

	tag, err := q.Exec(ctx,
		`UPDATE identity_password_resets SET used_at = $3
		WHERE user_id = $1 AND token_hash = $2 AND used_at IS NULL AND expires_at > $3`,
		userID, tokenHash, now,
	)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
	}
	return err
}
