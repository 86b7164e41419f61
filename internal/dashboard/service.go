package dashboard

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"coach-backend/internal/credits"
	"coach-backend/internal/interviews"
	"coach-backend/internal/resumes"
	"coach-backend/internal/shared/telemetry"
)

const (
	trailingWindow = 30 * 24 * time.Hour
	trendWindow    = 7 * 24 * time.Hour
)

const (
	TrendComputed            = "computed"
	TrendInsufficientHistory = "insufficient_history"
)

// Trend compares this week's interview scores with the prior week's. It is
// absent entirely when no interview happened in the last 7 days.
type Trend struct {
	Kind     string  `json:"kind"`
	DeltaPct float64 `json:"deltaPct,omitempty"`
}

// View is the aggregated dashboard payload.
type View struct {
	LatestResumeScore    int              `json:"latestResumeScore"`
	AvgInterviewScore30d float64          `json:"avgInterviewScore30d"`
	InterviewsLast7d     int              `json:"interviewsLast7d"`
	Trend                *Trend           `json:"trend,omitempty"`
	ActiveTasks          int              `json:"activeTasks"`
	Credits              *credits.Snapshot `json:"credits,omitempty"`
}

// Service aggregates the dashboard from independent reads. Any single failed
// read degrades to its zero value instead of failing the whole view.
type Service struct {
	Scores  resumes.ScoresRepo
	Results interviews.ResultsRepo
	Tasks   TasksRepo
	Credits *credits.Service
}

func (s *Service) Build(ctx context.Context, userID string) (View, error) {
	now := time.Now().UTC()
	var view View
	var scores30 []interviews.ScorePoint
	var scores14 []interviews.ScorePoint

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if s.Scores == nil {
			return nil
		}
		score, err := s.Scores.Latest(gctx, userID)
		if err != nil {
			s.degrade(ctx, userID, "latest_resume_score", err)
			return nil
		}
		view.LatestResumeScore = score.Score
		return nil
	})
	g.Go(func() error {
		if s.Results == nil {
			return nil
		}
		points, err := s.Results.ScoresSince(gctx, userID, now.Add(-trailingWindow))
		if err != nil {
			s.degrade(ctx, userID, "interview_scores_30d", err)
			return nil
		}
		scores30 = points
		return nil
	})
	g.Go(func() error {
		if s.Results == nil {
			return nil
		}
		count, err := s.Results.CountSince(gctx, userID, now.Add(-trendWindow))
		if err != nil {
			s.degrade(ctx, userID, "interview_count_7d", err)
			return nil
		}
		view.InterviewsLast7d = count
		return nil
	})
	g.Go(func() error {
		if s.Results == nil {
			return nil
		}
		points, err := s.Results.ScoresSince(gctx, userID, now.Add(-2*trendWindow))
		if err != nil {
			s.degrade(ctx, userID, "interview_scores_14d", err)
			return nil
		}
		scores14 = points
		return nil
	})
	g.Go(func() error {
		if s.Tasks == nil {
			return nil
		}
		count, err := s.Tasks.CountActive(gctx, userID)
		if err != nil {
			s.degrade(ctx, userID, "active_tasks", err)
			return nil
		}
		view.ActiveTasks = count
		return nil
	})
	g.Go(func() error {
		if s.Credits == nil {
			return nil
		}
		snap, err := s.Credits.EnsurePeriod(gctx, userID)
		if err != nil {
			s.degrade(ctx, userID, "credits", err)
			return nil
		}
		view.Credits = &snap
		return nil
	})

	if err := g.Wait(); err != nil {
		return View{}, err
	}

	view.AvgInterviewScore30d = roundOneDecimal(meanScore(scores30))
	view.Trend = computeTrend(scores14, now)
	return view, nil
}

func (s *Service) degrade(ctx context.Context, userID, read string, err error) {
	telemetry.Warn("dashboard.read_degraded", map[string]any{
		"user_id": userID,
		"read":    read,
		"error":   err.Error(),
	})
	_ = ctx
}

func meanScore(points []interviews.ScorePoint) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += p.Score
	}
	return sum / float64(len(points))
}

// computeTrend is nil when the current week has no interviews. With current
// activity it compares week-over-week means, falling back to
// insufficient_history when the prior week is empty.
func computeTrend(points []interviews.ScorePoint, now time.Time) *Trend {
	weekAgo := now.Add(-trendWindow)
	var current, prior []interviews.ScorePoint
	for _, p := range points {
		if p.CompletedAt.Before(weekAgo) {
			prior = append(prior, p)
		} else {
			current = append(current, p)
		}
	}
	if len(current) == 0 {
		return nil
	}
	if len(prior) == 0 {
		return &Trend{Kind: TrendInsufficientHistory}
	}
	priorMean := meanScore(prior)
	if priorMean == 0 {
		return &Trend{Kind: TrendInsufficientHistory}
	}
	delta := (meanScore(current) - priorMean) / priorMean * 100
	return &Trend{Kind: TrendComputed, DeltaPct: roundOneDecimal(delta)}
}

func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
