package rbac

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/persist"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/lo"
	"go.uber.org/atomic"
)

const ruleValues = 6

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Adapter stores policy lines as (ptype, v0..v5) rows.
type Adapter struct {
	db       Querier
	table    string
	channel  string
	filtered *atomic.Bool
}

var (
	_ persist.Adapter         = (*Adapter)(nil)
	_ persist.BatchAdapter    = (*Adapter)(nil)
	_ persist.FilteredAdapter = (*Adapter)(nil)
)

type Option func(*Adapter)

func WithTable(name string) Option {
	return func(a *Adapter) {
		if name != "" {
			a.table = lo.SnakeCase(name)
		}
	}
}

// WithChannel sets the NOTIFY channel written by AssignRoleTx. It must match
// the watcher channel.
func WithChannel(name string) Option {
	return func(a *Adapter) {
		if name != "" {
			a.channel = name
		}
	}
}

func NewAdapter(db Querier, opts ...Option) *Adapter {
	a := &Adapter{db: db, table: DefaultTable, channel: DefaultChannel, filtered: atomic.NewBool(false)}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func columns() string {
	return strings.Join(lo.Times(ruleValues, func(i int) string { return "v" + strconv.Itoa(i) }), ", ")
}

func placeholders(from int) string {
	return strings.Join(lo.Times(ruleValues, func(i int) string { return "$" + strconv.Itoa(i+from) }), ", ")
}

func conditions(from int) string {
	return strings.Join(lo.Times(ruleValues, func(i int) string {
		return "v" + strconv.Itoa(i) + " = $" + strconv.Itoa(i+from)
	}), " AND ")
}

func ruleArgs(ptype string, rule []string) ([]any, error) {
	if len(rule) > ruleValues {
		return nil, fmt.Errorf("%w: %d", ErrRuleTooLong, len(rule))
	}
	padded := make([]string, ruleValues)
	copy(padded, rule)
	return append([]any{ptype}, lo.ToAnySlice(padded)...), nil
}

func (a *Adapter) insertSQL() string {
	return fmt.Sprintf("INSERT INTO %s (ptype, %s) VALUES ($1, %s) ON CONFLICT DO NOTHING",
		a.table, columns(), placeholders(2))
}

func (a *Adapter) deleteSQL() string {
	return fmt.Sprintf("DELETE FROM %s WHERE ptype = $1 AND %s", a.table, conditions(2))
}

func (a *Adapter) selectLines(ctx context.Context, ptype string, fieldIndex int, values ...string) ([][]string, error) {
	if len(values) > ruleValues-fieldIndex {
		return nil, fmt.Errorf("%w: %d", ErrRuleTooLong, len(values))
	}

	query := fmt.Sprintf("SELECT ptype, %s FROM %s", columns(), a.table)
	var where []string
	var args []any
	if ptype != "" {
		args = append(args, ptype)
		where = append(where, "ptype = $1")
	}
	for i, v := range values {
		if v == "" {
			continue
		}
		args = append(args, v)
		where = append(where, "v"+strconv.Itoa(fieldIndex+i)+" = $"+strconv.Itoa(len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	rows, err := a.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines [][]string
	for rows.Next() {
		var ptype string
		vals := make([]sql.NullString, ruleValues)
		dest := append([]any{&ptype}, lo.Map(vals, func(_ sql.NullString, i int) any { return &vals[i] })...)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		line := append([]string{ptype}, lo.Map(vals, func(v sql.NullString, _ int) string { return v.String })...)
		lines = append(lines, lo.DropRightWhile(line, func(s string) bool { return s == "" }))
	}
	return lines, rows.Err()
}

func loadLines(m model.Model, lines [][]string) error {
	for _, line := range lines {
		if err := persist.LoadPolicyArray(line, m); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) LoadPolicy(m model.Model) error {
	a.filtered.Store(false)
	lines, err := a.selectLines(context.Background(), "", 0)
	if err != nil {
		return err
	}
	return loadLines(m, lines)
}

// LoadFilteredPolicy accepts map[ptype][][]values; values are OR-ed per ptype
// and blank values match anything.
func (a *Adapter) LoadFilteredPolicy(m model.Model, filter any) error {
	if lo.IsNil(filter) {
		return a.LoadPolicy(m)
	}
	ft, ok := filter.(map[string][][]string)
	if !ok {
		return fmt.Errorf("%w: got %T", ErrInvalidFilterType, filter)
	}
	a.filtered.Store(true)

	var lines [][]string
	for ptype, conds := range ft {
		for _, values := range conds {
			got, err := a.selectLines(context.Background(), ptype, 0, values...)
			if err != nil {
				return err
			}
			lines = append(lines, got...)
		}
	}
	lines = lo.UniqBy(lines, func(l []string) string { return strings.Join(l, ",") })
	return loadLines(m, lines)
}

func (a *Adapter) IsFiltered() bool { return a.filtered.Load() }

// SavePolicy replaces the whole table with the model content.
func (a *Adapter) SavePolicy(m model.Model) (err error) {
	ctx := context.Background()
	tx, err := a.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, ignoreClosed(tx.Rollback(ctx)))
		}
	}()

	if _, err = tx.Exec(ctx, "DELETE FROM "+a.table); err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for _, sec := range []string{"p", "g"} {
		for ptype, ast := range m[sec] {
			for _, rule := range ast.Policy {
				args, aerr := ruleArgs(ptype, rule)
				if aerr != nil {
					return aerr
				}
				batch.Queue(a.insertSQL(), args...)
			}
		}
	}
	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (a *Adapter) AddPolicy(_, ptype string, rule []string) error {
	return a.AddPolicies("", ptype, [][]string{rule})
}

func (a *Adapter) RemovePolicy(_, ptype string, rule []string) error {
	return a.RemovePolicies("", ptype, [][]string{rule})
}

func (a *Adapter) AddPolicies(_, ptype string, rules [][]string) error {
	return a.execEach(a.insertSQL(), ptype, rules)
}

func (a *Adapter) RemovePolicies(_, ptype string, rules [][]string) error {
	return a.execEach(a.deleteSQL(), ptype, rules)
}

func (a *Adapter) execEach(query, ptype string, rules [][]string) error {
	ctx := context.Background()
	for _, rule := range rules {
		args, err := ruleArgs(ptype, rule)
		if err != nil {
			return err
		}
		if _, err := a.db.Exec(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) RemoveFilteredPolicy(_, ptype string, fieldIndex int, values ...string) error {
	if len(values) > ruleValues-fieldIndex {
		return fmt.Errorf("%w: %d", ErrRuleTooLong, len(values))
	}
	query := "DELETE FROM " + a.table + " WHERE ptype = $1"
	args := []any{ptype}
	for i, v := range values {
		if v == "" {
			continue
		}
		args = append(args, v)
		query += " AND v" + strconv.Itoa(fieldIndex+i) + " = $" + strconv.Itoa(len(args))
	}
	_, err := a.db.Exec(context.Background(), query, args...)
	return err
}

// AssignRoleTx grants role to subject inside tx and schedules a policy reload
// on every instance once tx commits. It fails with ErrRoleWithoutPermissions
// when role has no "p" lines, so a typo in configuration cannot silently
// create users without access.
func (a *Adapter) AssignRoleTx(ctx context.Context, tx pgx.Tx, subject, role string) error {
	var exists bool
	q := "SELECT EXISTS (SELECT 1 FROM " + a.table + " WHERE ptype = 'p' AND v0 = $1)"
	if err := tx.QueryRow(ctx, q, role).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %q", ErrRoleWithoutPermissions, role)
	}

	args, err := ruleArgs("g", []string{subject, role})
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, a.insertSQL(), args...); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, "SELECT pg_notify($1, $2)", a.channel, reloadPayload(""))
	return err
}

func ignoreClosed(err error) error {
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}
