package postgres

import (
	"context"
	"fmt"
	"strings"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

// LedgerRepo implements ports.LedgerRepository. It only ever inserts.
type LedgerRepo struct {
	pool Pool
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(pool Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

// CreateIntra appends a deposit or withdrawal within the mutating transaction.
func (r *LedgerRepo) CreateIntra(ctx context.Context, tx pgx.Tx, e *domain.IntraEntry) error {
	query := `INSERT INTO intra_entries (id, wallet_id, entry_type, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := tx.Exec(ctx, query, e.ID, e.WalletID, e.Type, e.Amount, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert intra entry: %w", translateConstraint(err))
	}
	return nil
}

// CreateInter appends a transfer within the mutating transaction.
func (r *LedgerRepo) CreateInter(ctx context.Context, tx pgx.Tx, e *domain.InterEntry) error {
	query := `INSERT INTO inter_entries (id, sender_wallet_id, recipient_wallet_id, entry_type, amount, credited_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		e.ID, e.SenderWalletID, e.RecipientWalletID, e.Type,
		e.Amount, e.CreditedAmount, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert inter entry: %w", translateConstraint(err))
	}
	return nil
}

var sortColumns = map[ports.LedgerSortField]string{
	ports.SortByTimestamp: "created_at",
	ports.SortByAmount:    "amount",
}

// historyQuery merges both entry tables in one statement, so the result is a
// single snapshot. Ties on the sort column are broken by id.
func historyQuery(params ports.LedgerListParams) (string, []any, error) {
	col, ok := sortColumns[params.SortBy]
	if !ok {
		return "", nil, fmt.Errorf("unsupported sort field %q", params.SortBy)
	}
	dir := "ASC"
	if params.Descending {
		dir = "DESC"
	}

	args := []any{params.WalletID}
	var where []string
	if params.Type != nil {
		args = append(args, *params.Type)
		where = append(where, fmt.Sprintf("entry_type = $%d", len(args)))
	}

	var b strings.Builder
	b.WriteString(`SELECT id, entry_type, amount, credited_amount, wallet_id, sender_wallet_id, recipient_wallet_id, created_at
		FROM (
			SELECT id, entry_type, amount, NULL::numeric AS credited_amount, wallet_id,
				NULL::uuid AS sender_wallet_id, NULL::uuid AS recipient_wallet_id, created_at
			FROM intra_entries WHERE wallet_id = $1
			UNION ALL
			SELECT id, entry_type, amount, credited_amount, NULL::uuid,
				sender_wallet_id, recipient_wallet_id, created_at
			FROM inter_entries WHERE sender_wallet_id = $1 OR recipient_wallet_id = $1
		) AS entries`)
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	fmt.Fprintf(&b, " ORDER BY %s %s, id %s", col, dir, dir)

	return b.String(), args, nil
}

// ListByWallet returns every entry touching the wallet.
func (r *LedgerRepo) ListByWallet(ctx context.Context, params ports.LedgerListParams) ([]domain.LedgerEntry, error) {
	query, args, err := historyQuery(params)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.LedgerEntry, 0)
	for rows.Next() {
		var e domain.LedgerEntry
		err := rows.Scan(
			&e.ID, &e.Type, &e.Amount, &e.CreditedAmount,
			&e.WalletID, &e.SenderWalletID, &e.RecipientWalletID, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return entries, nil
}
