package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAuditRepo(mock)
	userID := uuid.New()
	log := &domain.AuditLog{
		ID:           uuid.New(),
		UserID:       &userID,
		Action:       domain.AuditActionDeposit,
		ResourceType: "wallet",
		ResourceID:   uuid.NewString(),
		Details:      `{"status":200}`,
		IPAddress:    "127.0.0.1",
		CreatedAt:    time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(log.ID, log.UserID, "DEPOSIT", log.ResourceType, log.ResourceID, log.Details, log.IPAddress, log.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, repo.Create(context.Background(), log))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthCheck(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	hc := NewHealthCheck(mock)
	assert.Equal(t, "postgresql", hc.Name())

	mock.ExpectExec("SELECT 1 FROM wallets").WillReturnResult(pgxmock.NewResult("SELECT", 0))
	mock.ExpectExec("SELECT 1 FROM intra_entries").WillReturnResult(pgxmock.NewResult("SELECT", 0))
	mock.ExpectExec("SELECT 1 FROM inter_entries").WillReturnResult(pgxmock.NewResult("SELECT", 0))
	assert.NoError(t, hc.Ping(context.Background()))

	// Missing ledger table: server reachable, migrations not applied.
	mock.ExpectExec("SELECT 1 FROM wallets").WillReturnResult(pgxmock.NewResult("SELECT", 0))
	mock.ExpectExec("SELECT 1 FROM intra_entries").
		WillReturnError(errors.New(`relation "intra_entries" does not exist`))
	err = hc.Ping(context.Background())
	assert.ErrorContains(t, err, "intra_entries")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactor_Begin(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tr := NewTransactor(mock)

	mock.ExpectBegin()
	tx, err := tr.Begin(context.Background())
	require.NoError(t, err)
	require.NotNil(t, tx)

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))
	_, err = tr.Begin(context.Background())
	assert.ErrorContains(t, err, "begin transaction")
}
