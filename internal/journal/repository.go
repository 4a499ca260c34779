package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a trade does not exist
var ErrNotFound = errors.New("trade not found")

// Repository handles trade persistence
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new journal repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save inserts or updates a trade
func (r *Repository) Save(ctx context.Context, t *Trade) error {
	query := `
		INSERT INTO journal.trades (
			trade_id, account_id, symbol, side, quantity,
			entry_price_cents, exit_price_cents, pnl_cents, fees_cents, risk_cents,
			opened_at, closed_at, tags, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (trade_id) DO UPDATE SET
			symbol = EXCLUDED.symbol,
			side = EXCLUDED.side,
			quantity = EXCLUDED.quantity,
			entry_price_cents = EXCLUDED.entry_price_cents,
			exit_price_cents = EXCLUDED.exit_price_cents,
			pnl_cents = EXCLUDED.pnl_cents,
			fees_cents = EXCLUDED.fees_cents,
			risk_cents = EXCLUDED.risk_cents,
			opened_at = EXCLUDED.opened_at,
			closed_at = EXCLUDED.closed_at,
			tags = EXCLUDED.tags,
			notes = EXCLUDED.notes
	`

	_, err := r.pool.Exec(ctx, query,
		t.ID, t.AccountID, t.Symbol, t.Side, t.Quantity,
		t.EntryPriceCents, t.ExitPriceCents, t.PnLCents, t.FeesCents, t.RiskCents,
		t.OpenedAt, t.ClosedAt, t.Tags, t.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to save trade: %w", err)
	}

	return nil
}

// SaveBatch inserts trades in a single transaction.
// CSV 임포트 경로: 전부 성공하거나 전부 롤백 — 부분 임포트 없음
func (r *Repository) SaveBatch(ctx context.Context, trades []*Trade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO journal.trades (
			trade_id, account_id, symbol, side, quantity,
			entry_price_cents, exit_price_cents, pnl_cents, fees_cents, risk_cents,
			opened_at, closed_at, tags, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	for _, t := range trades {
		_, err := tx.Exec(ctx, query,
			t.ID, t.AccountID, t.Symbol, t.Side, t.Quantity,
			t.EntryPriceCents, t.ExitPriceCents, t.PnLCents, t.FeesCents, t.RiskCents,
			t.OpenedAt, t.ClosedAt, t.Tags, t.Notes,
		)
		if err != nil {
			return fmt.Errorf("failed to insert trade %s: %w", t.ID, err)
		}
	}

	return tx.Commit(ctx)
}

// Get retrieves a trade by ID
func (r *Repository) Get(ctx context.Context, tradeID string) (*Trade, error) {
	query := `
		SELECT trade_id, account_id, symbol, side, quantity,
		       entry_price_cents, exit_price_cents, pnl_cents, fees_cents, risk_cents,
		       opened_at, closed_at, tags, notes
		FROM journal.trades
		WHERE trade_id = $1
	`

	t, err := scanTrade(r.pool.QueryRow(ctx, query, tradeID))
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, tradeID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}

	return t, nil
}

// ListByAccount retrieves an account's trades in a closed-at window.
// from/to가 zero면 해당 경계는 무제한
func (r *Repository) ListByAccount(ctx context.Context, accountID string, from, to time.Time) ([]*Trade, error) {
	query := `
		SELECT trade_id, account_id, symbol, side, quantity,
		       entry_price_cents, exit_price_cents, pnl_cents, fees_cents, risk_cents,
		       opened_at, closed_at, tags, notes
		FROM journal.trades
		WHERE account_id = $1
		  AND ($2::timestamptz IS NULL OR closed_at >= $2)
		  AND ($3::timestamptz IS NULL OR closed_at <= $3)
		ORDER BY closed_at ASC
	`

	var fromArg, toArg any
	if !from.IsZero() {
		fromArg = from
	}
	if !to.IsZero() {
		toArg = to
	}

	rows, err := r.pool.Query(ctx, query, accountID, fromArg, toArg)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	var trades []*Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, t)
	}

	return trades, rows.Err()
}

// Delete removes a trade
func (r *Repository) Delete(ctx context.Context, tradeID string) error {
	query := `DELETE FROM journal.trades WHERE trade_id = $1`

	tag, err := r.pool.Exec(ctx, query, tradeID)
	if err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, tradeID)
	}

	return nil
}

func scanTrade(row pgx.Row) (*Trade, error) {
	var t Trade
	err := row.Scan(
		&t.ID, &t.AccountID, &t.Symbol, &t.Side, &t.Quantity,
		&t.EntryPriceCents, &t.ExitPriceCents, &t.PnLCents, &t.FeesCents, &t.RiskCents,
		&t.OpenedAt, &t.ClosedAt, &t.Tags, &t.Notes,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
