package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"coach-backend/internal/credits"
	"coach-backend/internal/interviews"
	"coach-backend/internal/resumes"
)

func addResult(t *testing.T, repo interviews.ResultsRepo, userID string, score float64, age time.Duration) {
	t.Helper()
	err := repo.Create(context.Background(), interviews.Result{
		ID:          userID + time.Now().Add(-age).String(),
		UserID:      userID,
		SessionID:   "s",
		Score:       score,
		CompletedAt: time.Now().UTC().Add(-age),
	})
	if err != nil {
		t.Fatalf("Create result: %v", err)
	}
}

func TestBuildComputesThirtyDayMean(t *testing.T) {
	results := interviews.NewMemoryResultsRepo()
	addResult(t, results, "user-1", 7, 24*time.Hour)
	addResult(t, results, "user-1", 8, 48*time.Hour)
	addResult(t, results, "user-1", 6, 29*24*time.Hour)
	// Outside the window, ignored.
	addResult(t, results, "user-1", 1, 45*24*time.Hour)

	svc := &Service{Results: results}
	view, err := svc.Build(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if view.AvgInterviewScore30d != 7.0 {
		t.Fatalf("avg = %v, want 7.0", view.AvgInterviewScore30d)
	}
	if view.InterviewsLast7d != 2 {
		t.Fatalf("interviews last 7d = %d, want 2", view.InterviewsLast7d)
	}
}

func TestBuildMeanRoundsToOneDecimal(t *testing.T) {
	results := interviews.NewMemoryResultsRepo()
	addResult(t, results, "user-1", 7, time.Hour)
	addResult(t, results, "user-1", 8, time.Hour)
	addResult(t, results, "user-1", 8, time.Hour)

	svc := &Service{Results: results}
	view, err := svc.Build(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// 23/3 = 7.666... rounds to 7.7
	if view.AvgInterviewScore30d != 7.7 {
		t.Fatalf("avg = %v, want 7.7", view.AvgInterviewScore30d)
	}
}

func TestBuildZeroWhenNoHistory(t *testing.T) {
	svc := &Service{Results: interviews.NewMemoryResultsRepo()}
	view, err := svc.Build(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if view.AvgInterviewScore30d != 0 {
		t.Fatalf("avg = %v, want 0", view.AvgInterviewScore30d)
	}
	if view.Trend != nil {
		t.Fatal("trend should be absent with no interviews in the last 7 days")
	}
}

func TestTrendAbsentWithoutRecentInterviews(t *testing.T) {
	results := interviews.NewMemoryResultsRepo()
	// History exists, but nothing in the last 7 days.
	addResult(t, results, "user-1", 8, 10*24*time.Hour)

	svc := &Service{Results: results}
	view, err := svc.Build(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if view.Trend != nil {
		t.Fatal("trend should be nil with zero interviews in the last 7 days")
	}
}

func TestTrendInsufficientHistory(t *testing.T) {
	results := interviews.NewMemoryResultsRepo()
	addResult(t, results, "user-1", 8, 24*time.Hour)

	svc := &Service{Results: results}
	view, err := svc.Build(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if view.Trend == nil || view.Trend.Kind != TrendInsufficientHistory {
		t.Fatalf("trend = %+v, want insufficient_history", view.Trend)
	}
}

func TestTrendComputedWeekOverWeek(t *testing.T) {
	results := interviews.NewMemoryResultsRepo()
	addResult(t, results, "user-1", 9, 24*time.Hour)
	addResult(t, results, "user-1", 6, 10*24*time.Hour)

	svc := &Service{Results: results}
	view, err := svc.Build(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if view.Trend == nil || view.Trend.Kind != TrendComputed {
		t.Fatalf("trend = %+v, want computed", view.Trend)
	}
	// (9-6)/6 = +50%
	if view.Trend.DeltaPct != 50.0 {
		t.Fatalf("deltaPct = %v, want 50.0", view.Trend.DeltaPct)
	}
}

type failingScores struct{}

func (failingScores) Create(ctx context.Context, score resumes.Score) error { return nil }
func (failingScores) Latest(ctx context.Context, userID string) (resumes.Score, error) {
	return resumes.Score{}, errors.New("store offline")
}

func TestBuildDegradesFailedReads(t *testing.T) {
	results := interviews.NewMemoryResultsRepo()
	addResult(t, results, "user-1", 8, 24*time.Hour)

	svc := &Service{
		Scores:  failingScores{},
		Results: results,
		Tasks:   NewMemoryTasksRepo(),
		Credits: credits.NewService(),
	}
	view, err := svc.Build(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Build should not fail when one read fails: %v", err)
	}
	if view.LatestResumeScore != 0 {
		t.Fatalf("latest resume score = %d, want degraded 0", view.LatestResumeScore)
	}
	if view.AvgInterviewScore30d != 8.0 {
		t.Fatalf("avg = %v, want 8.0 from surviving read", view.AvgInterviewScore30d)
	}
	if view.Credits == nil {
		t.Fatal("credits summary missing")
	}
}
