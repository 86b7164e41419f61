package credits

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed credit store.
func NewPGStore(db *sql.DB) *pgStore {
	return &pgStore{DB: db}
}

func (s *pgStore) Get(ctx context.Context, userID string) (Snapshot, error) {
	return s.ensure(ctx, userID)
}

func (s *pgStore) EnsurePeriod(ctx context.Context, userID string) (Snapshot, error) {
	return s.ensure(ctx, userID)
}

func (s *pgStore) Consume(ctx context.Context, userID string, cat Category, n int) (Snapshot, error) {
	if n <= 0 {
		return s.ensure(ctx, userID)
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	snap, err := s.lockAndEnsure(ctx, tx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	if snap.Unlimited {
		if err = tx.Commit(); err != nil {
			return Snapshot{}, err
		}
		return snap, nil
	}

	fromCat, fromUni, ok := debitOrder(snap.Balances, cat, n)
	if !ok {
		err = ErrInsufficientCredits
		return Snapshot{}, err
	}
	if fromCat > 0 {
		if err = s.debit(ctx, tx, userID, cat, fromCat); err != nil {
			return Snapshot{}, err
		}
		b := snap.Balances[cat]
		b.Remaining -= fromCat
		snap.Balances[cat] = b
	}
	if fromUni > 0 {
		if err = s.debit(ctx, tx, userID, CategoryUniversal, fromUni); err != nil {
			return Snapshot{}, err
		}
		b := snap.Balances[CategoryUniversal]
		b.Remaining -= fromUni
		snap.Balances[CategoryUniversal] = b
	}
	if err = tx.Commit(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (s *pgStore) debit(ctx context.Context, tx *sql.Tx, userID string, cat Category, n int) error {
	_, err := tx.ExecContext(ctx, `
UPDATE credits SET balance = balance - $1 WHERE user_id = $2 AND category = $3`, n, userID, string(cat))
	return err
}

func (s *pgStore) Reset(ctx context.Context, userID string) (Snapshot, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	snap, err := s.lockAndEnsure(ctx, tx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	resetsAt := time.Now().UTC().Add(periodLength)
	if _, err = tx.ExecContext(ctx, `
UPDATE credits SET balance = cap, resets_at = $1 WHERE user_id = $2`, resetsAt, userID); err != nil {
		return Snapshot{}, err
	}
	if err = tx.Commit(); err != nil {
		return Snapshot{}, err
	}
	for cat, b := range snap.Balances {
		b.Remaining = b.Cap
		snap.Balances[cat] = b
	}
	snap.ResetsAt = resetsAt
	return snap, nil
}

func (s *pgStore) SetPlan(ctx context.Context, userID, plan string, unlimited bool) (Snapshot, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, `
INSERT INTO plans (user_id, plan, unlimited) VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE SET plan = EXCLUDED.plan, unlimited = EXCLUDED.unlimited`,
		userID, plan, unlimited); err != nil {
		return Snapshot{}, err
	}
	snap, err := s.lockAndEnsure(ctx, tx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	resetsAt := time.Now().UTC().Add(periodLength)
	if _, err = tx.ExecContext(ctx, `
UPDATE credits SET balance = cap, resets_at = $1 WHERE user_id = $2`, resetsAt, userID); err != nil {
		return Snapshot{}, err
	}
	if err = tx.Commit(); err != nil {
		return Snapshot{}, err
	}
	snap.Plan = plan
	snap.Unlimited = unlimited
	for cat, b := range snap.Balances {
		b.Remaining = b.Cap
		snap.Balances[cat] = b
	}
	snap.ResetsAt = resetsAt
	return snap, nil
}

func (s *pgStore) SweepExpired(ctx context.Context) (int, error) {
	resetsAt := time.Now().UTC().Add(periodLength)
	res, err := s.DB.ExecContext(ctx, `
UPDATE credits SET balance = cap, resets_at = $1 WHERE resets_at <= now()`, resetsAt)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func (s *pgStore) ensure(ctx context.Context, userID string) (Snapshot, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	snap, err := s.lockAndEnsure(ctx, tx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	if err = tx.Commit(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (s *pgStore) lockAndEnsure(ctx context.Context, tx *sql.Tx, userID string) (Snapshot, error) {
	snap := Snapshot{Plan: "starter", Balances: make(map[Category]Balance, len(Categories))}

	row := tx.QueryRowContext(ctx, `
SELECT plan, unlimited FROM plans WHERE user_id = $1`, userID)
	if err := row.Scan(&snap.Plan, &snap.Unlimited); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, err
	}

	rows, err := tx.QueryContext(ctx, `
SELECT category, balance, cap, resets_at FROM credits WHERE user_id = $1 FOR UPDATE`, userID)
	if err != nil {
		return Snapshot{}, err
	}
	var resetsAt time.Time
	for rows.Next() {
		var cat string
		var b Balance
		var rowResets time.Time
		if err := rows.Scan(&cat, &b.Remaining, &b.Cap, &rowResets); err != nil {
			rows.Close()
			return Snapshot{}, err
		}
		snap.Balances[Category(cat)] = b
		if resetsAt.IsZero() || rowResets.Before(resetsAt) {
			resetsAt = rowResets
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return Snapshot{}, err
	}
	rows.Close()

	now := time.Now().UTC()
	if len(snap.Balances) == 0 {
		defaults := defaultSnapshot()
		resetsAt = defaults.ResetsAt
		for _, cat := range Categories {
			b := defaults.Balances[cat]
			if _, err := tx.ExecContext(ctx, `
INSERT INTO credits (user_id, category, balance, cap, resets_at) VALUES ($1, $2, $3, $4, $5)`,
				userID, string(cat), b.Remaining, b.Cap, resetsAt); err != nil {
				return Snapshot{}, err
			}
			snap.Balances[cat] = b
		}
	} else if !now.Before(resetsAt) {
		resetsAt = now.Add(periodLength)
		if _, err := tx.ExecContext(ctx, `
UPDATE credits SET balance = cap, resets_at = $1 WHERE user_id = $2`, resetsAt, userID); err != nil {
			return Snapshot{}, err
		}
		for cat, b := range snap.Balances {
			b.Remaining = b.Cap
			snap.Balances[cat] = b
		}
	}
	snap.ResetsAt = resetsAt
	return snap, nil
}
