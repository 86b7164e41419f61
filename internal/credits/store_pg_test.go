package credits

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGStoreConsumeDebitsCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := NewPGStore(db)
	resetsAt := time.Now().UTC().Add(periodLength)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT plan, unlimited FROM plans").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"plan", "unlimited"}).AddRow("starter", false))
	rows := sqlmock.NewRows([]string{"category", "balance", "cap", "resets_at"})
	for _, cat := range Categories {
		rows.AddRow(string(cat), 5, 5, resetsAt)
	}
	mock.ExpectQuery("SELECT category, balance, cap, resets_at FROM credits").
		WithArgs("user-1").
		WillReturnRows(rows)
	mock.ExpectExec("UPDATE credits SET balance = balance -").
		WithArgs(2, "user-1", "interview").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	snap, err := store.Consume(context.Background(), "user-1", CategoryInterview, 2)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if got := snap.Balances[CategoryInterview].Remaining; got != 3 {
		t.Fatalf("interview remaining = %d, want 3", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreEnsureSeedsDefaults(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := NewPGStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT plan, unlimited FROM plans").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"plan", "unlimited"}))
	mock.ExpectQuery("SELECT category, balance, cap, resets_at FROM credits").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"category", "balance", "cap", "resets_at"}))
	for range Categories {
		mock.ExpectExec("INSERT INTO credits").
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	snap, err := store.EnsurePeriod(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("EnsurePeriod: %v", err)
	}
	if len(snap.Balances) != len(Categories) {
		t.Fatalf("balances = %d, want %d", len(snap.Balances), len(Categories))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
