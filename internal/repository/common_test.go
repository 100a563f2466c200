package repository

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"

	"go-formation-reservation/config"
	"go-formation-reservation/internal/database"
	"go-formation-reservation/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// testDB 是測試用的資料庫連接池
var testDB *pgxpool.Pool

func TestMain(m *testing.M) {
	cfg := config.LoadTestConfig()

	var err error
	testDB, err = database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize test database: %v", err)
	}

	// 確保資料庫連接正常
	if err := testDB.Ping(context.Background()); err != nil {
		log.Fatalf("Failed to ping test database: %v", err)
	}

	log.Println("Test database connected successfully")
	log.Println("Running repository tests...")

	code := m.Run()
	testDB.Close()
	log.Println("Test database closed")

	os.Exit(code)
}

func setupTestWithTruncate(t *testing.T) func() {
	t.Helper()
	ctx := context.Background()

	// 清空所有測試資料，保留 schema
	_, err := testDB.Exec(ctx, "TRUNCATE reservations, offerings RESTART IDENTITY CASCADE")
	if err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}

	return func() {
	}
}

// beginTestTx 開啟測試用的 transaction，cleanup 時 rollback
func beginTestTx(t *testing.T) (pgx.Tx, func()) {
	t.Helper()
	ctx := context.Background()

	tx, err := testDB.Begin(ctx)
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}

	cleanup := func() {
		if err := tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
			t.Logf("Warning: failed to rollback transaction: %v", err)
		}
	}

	return tx, cleanup
}

// runInTestTx 在一個會 commit 的 transaction 裡執行 fn
func runInTestTx(t *testing.T, fn func(tx pgx.Tx) error) error {
	t.Helper()
	return database.RunInTx(context.Background(), testDB, fn)
}

// createTestOffering 輔助函數：創建測試用的 offering
// capacity_total 和 capacity_remaining 都設置為 capacity
func createTestOffering(t *testing.T, title string, capacity int, status model.OfferingStatus) int {
	t.Helper()
	return createTestOfferingWithRemaining(t, title, capacity, capacity, status)
}

// createTestOfferingWithRemaining 輔助函數：可以分別指定總座位與餘位
func createTestOfferingWithRemaining(t *testing.T, title string, total, remaining int, status model.OfferingStatus) int {
	t.Helper()
	ctx := context.Background()

	query := `
		INSERT INTO offerings (offering_id, title, capacity_total, capacity_remaining, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int
	err := testDB.QueryRow(ctx, query, uuid.New(), title, total, remaining, status).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test offering: %v", err)
	}

	return id
}

// createTestReservation 輔助函數：創建測試用的 reservation
func createTestReservation(t *testing.T, userID, offeringID int, status model.ReservationStatus) int {
	t.Helper()
	ctx := context.Background()

	query := `
		INSERT INTO reservations (reservation_id, user_id, offering_id, status, first_name, last_name, email, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var id int
	err := testDB.QueryRow(ctx, query,
		uuid.New(), userID, offeringID, status,
		"Test", "User", fmt.Sprintf("user%d@example.com", userID), "0912345678",
	).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test reservation: %v", err)
	}

	return id
}

// getRemaining 輔助函數：讀取 offering 目前的餘位
func getRemaining(t *testing.T, offeringID int) int {
	t.Helper()

	var remaining int
	err := testDB.QueryRow(context.Background(),
		"SELECT capacity_remaining FROM offerings WHERE id = $1", offeringID,
	).Scan(&remaining)
	if err != nil {
		t.Fatalf("Failed to read capacity_remaining: %v", err)
	}

	return remaining
}
