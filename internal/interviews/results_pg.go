package interviews

import (
	"context"
	"database/sql"
	"time"
)

type PGResultsRepo struct {
	DB *sql.DB
}

func (r *PGResultsRepo) Create(ctx context.Context, result Result) error {
	const query = `
INSERT INTO interview_results (id, user_id, session_id, score, turns, completed_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO NOTHING`
	_, err := r.DB.ExecContext(ctx, query,
		result.ID,
		result.UserID,
		result.SessionID,
		result.Score,
		result.Turns,
		result.CompletedAt,
	)
	return err
}

func (r *PGResultsRepo) ScoresSince(ctx context.Context, userID string, since time.Time) ([]ScorePoint, error) {
	const query = `
SELECT score, completed_at
FROM interview_results
WHERE user_id = $1 AND completed_at >= $2
ORDER BY completed_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []ScorePoint
	for rows.Next() {
		var p ScorePoint
		if err := rows.Scan(&p.Score, &p.CompletedAt); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (r *PGResultsRepo) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	const query = `
SELECT COUNT(*) FROM interview_results WHERE user_id = $1 AND completed_at >= $2`
	var count int
	if err := r.DB.QueryRowContext(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
