// Package entryrepo manages the append-only ledger of entries.
package entryrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates entry repository layer logic on PostgreSQL.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn dbpkg.TxBeginner
}

// NewRepoPGS returns entry RepoPGS with connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:   db,
		conn: db,
	}
}

// NewTxRepoPGS returns entry RepoPGS running inside the caller's transaction.
func NewTxRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const entryColumns = `id, owner, kind, amount, description, recipient, created_at, updated_at`

const createQuery = `
INSERT INTO entries (id, owner, kind, amount, description, recipient)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + entryColumns

const lockOwnerQuery = `SELECT pg_advisory_xact_lock(hashtext($1))`

// createDebitQuery appends the entry only if the owner's balance covers the amount.
const createDebitQuery = `
INSERT INTO entries (id, owner, kind, amount, description, recipient)
SELECT $1::uuid, $2::varchar, $3::entry_kind, $4::numeric, $5::varchar, $6::varchar
WHERE (
	SELECT COALESCE(SUM(CASE WHEN kind = 'deposit' THEN amount ELSE -amount END), 0)
	FROM entries
	WHERE owner = $2::varchar
) >= $4::numeric
RETURNING ` + entryColumns

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (domain.Entry, error) {
	var e domain.Entry

	err := row.Scan(
		&e.ID,
		&e.Owner,
		&e.Kind,
		&e.Amount,
		&e.Description,
		&e.Recipient,
		&e.CreatedAt,
		&e.UpdatedAt,
	)

	return e, err
}

// Create appends the entry and then returns it.
//
// Debit entries are only appended when the owner's balance, recomputed under
// an advisory lock held by the transaction, covers the amount.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateEntryParams) (domain.Entry, error) {
	l := zerolog.Ctx(ctx)

	if !arg.Kind.Valid() {
		return domain.Entry{}, domain.ErrInvalidEntryKind
	}

	if !arg.Kind.IsDebit() {
		return r.insert(ctx, r.db, createQuery, arg)
	}

	if r.conn == nil {
		return r.createDebit(ctx, r.db, arg)
	}

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Entry{}, errorspkg.ErrInternal
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			l.Error().Err(err).Send()
		}
	}()

	e, err := r.createDebit(ctx, tx, arg)
	if err != nil {
		return e, err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return domain.Entry{}, errorspkg.ErrInternal
	}

	return e, nil
}

func (r *RepoPGS) createDebit(ctx context.Context, db dbpkg.SQLInterface, arg domain.CreateEntryParams) (domain.Entry, error) {
	l := zerolog.Ctx(ctx)

	if _, err := db.ExecContext(ctx, lockOwnerQuery, arg.Owner); err != nil {
		l.Error().Err(err).Send()
		return domain.Entry{}, errorspkg.ErrInternal
	}

	e, err := r.insert(ctx, db, createDebitQuery, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return e, domain.ErrInsufficientFunds
	}

	return e, err
}

func (r *RepoPGS) insert(ctx context.Context, db dbpkg.SQLInterface, query string, arg domain.CreateEntryParams) (domain.Entry, error) {
	l := zerolog.Ctx(ctx)

	row := db.QueryRowContext(ctx, query,
		uuid.New(),
		arg.Owner,
		string(arg.Kind),
		arg.Amount.String(),
		arg.Description,
		arg.Recipient,
	)

	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}

		l.Error().Err(err).Msgf("Create(ctx, %+v)", arg)

		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Constraint {
			case "entries_owner_fkey":
				return e, domain.ErrAccountNotFound
			case "entries_amount_check":
				return e, domain.ErrNegativeAmount
			}
		}

		return e, errorspkg.ErrInternal
	}

	return e, nil
}

const getQuery = `
SELECT ` + entryColumns + `
FROM entries
WHERE id = $1
`

// Get returns the entry with the given id.
func (r *RepoPGS) Get(ctx context.Context, id uuid.UUID) (domain.Entry, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, getQuery, id)

	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, domain.ErrEntryNotFound
		}

		l.Error().Err(err).Send()

		return e, errorspkg.ErrInternal
	}

	return e, nil
}

const listByOwnerQuery = `
SELECT ` + entryColumns + `
FROM entries
WHERE owner = $1
ORDER BY seq
`

// ListByOwner returns all entries of the owner in insertion order.
func (r *RepoPGS) ListByOwner(ctx context.Context, owner string) ([]domain.Entry, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listByOwnerQuery, owner)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Entry{}

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, e)
	}

	if err := rows.Close(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}
