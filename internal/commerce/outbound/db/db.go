package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/gostore/internal/commerce/entity"
	"github.com/shandysiswandi/gostore/internal/pkg/goerror"
	"github.com/shandysiswandi/gostore/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("commerce.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// CreateCart inserts the cart unless the user already owns one. created is
// false when the existing cart was kept.
func (s *DB) CreateCart(ctx context.Context, cart entity.Cart) (created bool, err error) {
	ctx, span := s.startSpan(ctx, "CreateCart")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`INSERT INTO commerce_carts (id, user_id) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING`,
		cart.ID, cart.UserID,
	)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}

func (s *DB) GetCartByUserID(ctx context.Context, userID int64) (_ *entity.Cart, err error) {
	ctx, span := s.startSpan(ctx, "GetCartByUserID")
	defer func() { s.endSpan(span, err) }()

	var cart entity.Cart
	err = s.conn.QueryRow(ctx,
		`SELECT id, user_id, created_at FROM commerce_carts WHERE user_id = $1`,
		userID,
	).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &cart, nil
}
