package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"

	"go-formation-reservation/config"
	"go-formation-reservation/internal/database"
	"go-formation-reservation/internal/events"
	"go-formation-reservation/internal/ledger"
	"go-formation-reservation/internal/model"
	"go-formation-reservation/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var testDB *pgxpool.Pool

func TestMain(m *testing.M) {
	cfg := config.LoadTestConfig()

	var err error
	testDB, err = database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize test database: %v", err)
	}

	if err := testDB.Ping(context.Background()); err != nil {
		log.Fatalf("Failed to ping test database: %v", err)
	}

	log.Println("Test database connected successfully")
	log.Println("Running service tests...")

	code := m.Run()
	testDB.Close()
	log.Println("Test database closed")

	os.Exit(code)
}

func setupTestWithTruncate(t *testing.T) func() {
	t.Helper()
	ctx := context.Background()

	_, err := testDB.Exec(ctx, "TRUNCATE reservations, offerings RESTART IDENTITY CASCADE")
	if err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}

	return func() {
	}
}

// newTestReservationService 用真實 repository 與 in-memory 事件匯流排組裝 service
func newTestReservationService() (ReservationService, events.Bus) {
	offeringRepo := repository.NewOfferingRepository(testDB)
	reservationRepo := repository.NewReservationRepository(testDB)
	capacityLedger := ledger.NewCapacityLedger(offeringRepo)
	bus := events.NewMemoryBus(100)
	return NewReservationService(testDB, reservationRepo, offeringRepo, capacityLedger, bus), bus
}

func newTestOfferingService() OfferingService {
	offeringRepo := repository.NewOfferingRepository(testDB)
	capacityLedger := ledger.NewCapacityLedger(offeringRepo)
	bus := events.NewMemoryBus(100)
	return NewOfferingService(testDB, offeringRepo, capacityLedger, bus)
}

// createTestOffering 輔助函數：創建測試用的 offering，回傳公開識別碼
func createTestOffering(t *testing.T, title string, capacity int, status model.OfferingStatus) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	offeringID := uuid.New()
	query := `
		INSERT INTO offerings (offering_id, title, capacity_total, capacity_remaining, status)
		VALUES ($1, $2, $3, $3, $4)
	`
	_, err := testDB.Exec(ctx, query, offeringID, title, capacity, status)
	if err != nil {
		t.Fatalf("Failed to create test offering: %v", err)
	}

	return offeringID
}

// newCreateRequest 輔助函數：建立預約請求，聯絡資訊帶固定快照
func newCreateRequest(userID int, offeringID uuid.UUID) model.CreateReservationRequest {
	return model.CreateReservationRequest{
		UserID:     userID,
		OfferingID: offeringID,
		Contact: model.Contact{
			FirstName: "Jean",
			LastName:  "Dupont",
			Email:     fmt.Sprintf("user%d@example.com", userID),
			Phone:     "0612345678",
		},
	}
}

// getRemainingByOfferingID 輔助函數：讀取 offering 目前的餘位
func getRemainingByOfferingID(t *testing.T, offeringID uuid.UUID) int {
	t.Helper()

	var remaining int
	err := testDB.QueryRow(context.Background(),
		"SELECT capacity_remaining FROM offerings WHERE offering_id = $1", offeringID,
	).Scan(&remaining)
	if err != nil {
		t.Fatalf("Failed to read capacity_remaining: %v", err)
	}

	return remaining
}

// countActiveByOfferingID 輔助函數：計算某場次的 active 預約數
func countActiveByOfferingID(t *testing.T, offeringID uuid.UUID) int {
	t.Helper()

	var count int
	err := testDB.QueryRow(context.Background(), `
		SELECT COUNT(*)
		FROM reservations r
		JOIN offerings o ON o.id = r.offering_id
		WHERE o.offering_id = $1 AND r.status = $2
	`, offeringID, model.ReservationStatusActive).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count active reservations: %v", err)
	}

	return count
}
