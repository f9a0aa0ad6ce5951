package payment

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/surajpaudel2/sports-ticketing/internal/domain"
	"github.com/surajpaudel2/sports-ticketing/pkg/config"
	"github.com/surajpaudel2/sports-ticketing/pkg/database"
)

const testBookingID = 880000

func skipIfNoIntegration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run.")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func setupPaymentDB(t *testing.T) *database.PostgresDB {
	ctx := context.Background()

	cfg := &config.DatabaseConfig{
		Host:            getEnv("TEST_POSTGRES_HOST", "localhost"),
		Port:            5432,
		User:            getEnv("TEST_POSTGRES_USER", "postgres"),
		Password:        getEnv("TEST_POSTGRES_PASSWORD", "postgres"),
		DBName:          getEnv("TEST_POSTGRES_DB", "payment_db"),
		SSLMode:         "disable",
		MaxConns:        5,
		MinConns:        1,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: time.Minute,
	}

	db, err := database.NewPostgres(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	_, err = db.Pool().Exec(ctx, `
		CREATE TABLE IF NOT EXISTS payments (
			id BIGSERIAL PRIMARY KEY,
			booking_id BIGINT NOT NULL,
			event_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			amount DECIMAL(12,2) NOT NULL,
			method VARCHAR(20) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
			receipt_url TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			payment_id BIGINT NOT NULL,
			amount DECIMAL(12,2) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
			reference TEXT NOT NULL DEFAULT '',
			failure_reason TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS refunds (
			id BIGSERIAL PRIMARY KEY,
			payment_id BIGINT NOT NULL,
			amount DECIMAL(12,2) NOT NULL CHECK (amount > 0),
			reason TEXT NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL,
			reference TEXT NOT NULL DEFAULT '',
			failure_reason TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		t.Fatalf("Failed to create payment tables: %v", err)
	}

	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = db.Pool().Exec(ctx, `DELETE FROM transactions WHERE payment_id IN (SELECT id FROM payments WHERE booking_id = $1)`, testBookingID)
		_, _ = db.Pool().Exec(ctx, `DELETE FROM refunds WHERE payment_id IN (SELECT id FROM payments WHERE booking_id = $1)`, testBookingID)
		_, _ = db.Pool().Exec(ctx, `DELETE FROM payments WHERE booking_id = $1`, testBookingID)
		db.Close()
	})
	return db
}

func TestPostgresRepository_PaymentTrail_Integration(t *testing.T) {
	skipIfNoIntegration(t)
	db := setupPaymentDB(t)
	repo := NewPostgresRepository(db.Pool())
	ctx := context.Background()

	p := domain.NewPayment(testBookingID, 1, 7, 500, "CREDIT_CARD")
	if err := repo.CreatePayment(ctx, p); err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	// two attempts: first fails, second succeeds
	first := domain.NewTransaction(p.ID, p.Amount)
	if err := repo.CreateTransaction(ctx, first); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	first.Status = domain.TransactionFailed
	first.FailureReason = "card declined"
	if err := repo.UpdateTransaction(ctx, first); err != nil {
		t.Fatalf("UpdateTransaction failed: %v", err)
	}

	second := domain.NewTransaction(p.ID, p.Amount)
	if err := repo.CreateTransaction(ctx, second); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	second.Status = domain.TransactionSuccess
	second.Reference = "ref-itest"
	if err := repo.UpdateTransaction(ctx, second); err != nil {
		t.Fatalf("UpdateTransaction failed: %v", err)
	}

	p.MarkSuccess("https://receipts.example.com/itest")
	if err := repo.UpdatePayment(ctx, p); err != nil {
		t.Fatalf("UpdatePayment failed: %v", err)
	}

	loaded, err := repo.GetPaymentByBookingID(ctx, testBookingID)
	if err != nil {
		t.Fatalf("GetPaymentByBookingID failed: %v", err)
	}
	if loaded.Status != domain.PaymentSuccess {
		t.Errorf("Expected SUCCESS, got %s", loaded.Status)
	}

	txns, err := repo.ListTransactions(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(txns))
	}
	if txns[0].Status != domain.TransactionFailed || txns[1].Status != domain.TransactionSuccess {
		t.Error("Transaction trail out of order or rewritten")
	}

	// refunds start PENDING and are settled in place
	refund := domain.NewRefund(p.ID, 200, "itest refund")
	if err := repo.CreateRefund(ctx, refund); err != nil {
		t.Fatalf("CreateRefund failed: %v", err)
	}
	refund.Status = domain.RefundSuccess
	refund.Reference = "ref-itest-refund"
	if err := repo.UpdateRefund(ctx, refund); err != nil {
		t.Fatalf("UpdateRefund failed: %v", err)
	}

	refunds, err := repo.ListRefunds(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListRefunds failed: %v", err)
	}
	if len(refunds) != 1 || refunds[0].Amount != 200 || refunds[0].Status != domain.RefundSuccess {
		t.Errorf("Unexpected refunds: %+v", refunds)
	}
}

func TestPostgresRepository_PaymentNotFound_Integration(t *testing.T) {
	skipIfNoIntegration(t)
	db := setupPaymentDB(t)
	repo := NewPostgresRepository(db.Pool())

	if _, err := repo.GetPaymentByID(context.Background(), -1); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
}
