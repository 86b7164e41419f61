package resumes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

type PGDraftRepo struct {
	DB *sql.DB
}

func (r *PGDraftRepo) Put(ctx context.Context, userID string, draft json.RawMessage) error {
	const query = `
INSERT INTO resume_drafts (user_id, draft, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (user_id) DO UPDATE SET draft = EXCLUDED.draft, updated_at = now()`
	_, err := r.DB.ExecContext(ctx, query, userID, []byte(draft))
	return err
}

func (r *PGDraftRepo) Get(ctx context.Context, userID string) (json.RawMessage, error) {
	const query = `SELECT draft FROM resume_drafts WHERE user_id = $1 LIMIT 1`
	var raw []byte
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return raw, nil
}

type PGScoresRepo struct {
	DB *sql.DB
}

func (r *PGScoresRepo) Create(ctx context.Context, score Score) error {
	const query = `
INSERT INTO resume_scores (id, user_id, score, created_at)
VALUES ($1, $2, $3, $4)`
	_, err := r.DB.ExecContext(ctx, query, score.ID, score.UserID, score.Score, score.CreatedAt)
	return err
}

func (r *PGScoresRepo) Latest(ctx context.Context, userID string) (Score, error) {
	const query = `
SELECT id, user_id, score, created_at
FROM resume_scores
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT 1`
	var score Score
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&score.ID, &score.UserID, &score.Score, &score.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Score{}, ErrNotFound
		}
		return Score{}, err
	}
	return score, nil
}
