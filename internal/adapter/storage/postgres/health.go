package postgres

import (
	"context"
	"fmt"
)

// ledgerTables must all be readable for the wallet store to count as healthy.
var ledgerTables = []string{"wallets", "intra_entries", "inter_entries"}

// HealthCheck reports whether the wallet store can serve balance and history
// reads. A reachable server whose migrations have not run is unhealthy.
type HealthCheck struct {
	pool Pool
}

func NewHealthCheck(pool Pool) *HealthCheck {
	return &HealthCheck{pool: pool}
}

// Ping probes each ledger table with a zero-row read.
func (h *HealthCheck) Ping(ctx context.Context) error {
	for _, table := range ledgerTables {
		if _, err := h.pool.Exec(ctx, "SELECT 1 FROM "+table+" LIMIT 0"); err != nil {
			return fmt.Errorf("%s: %w", table, err)
		}
	}
	return nil
}

// Name is the key under which /health lists the wallet store.
func (h *HealthCheck) Name() string {
	return "postgresql"
}
