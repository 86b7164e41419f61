package interviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coach-backend/internal/llm"
	"coach-backend/internal/shared/telemetry"
)

// GenerateReport builds the narrative for a completed session and stores it
// via the object store. Safe to call twice: a ready report is not rebuilt.
func (s *Service) GenerateReport(ctx context.Context, sessionID string) error {
	session, err := s.Repo.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.State != StateComplete {
		return fmt.Errorf("session %s not complete", sessionID)
	}
	if session.ReportReady {
		return nil
	}
	if s.LLM == nil {
		return errors.New("llm client not configured")
	}
	if s.Store == nil {
		return errors.New("object store not configured")
	}

	system, user := BuildReportPrompt(session)
	narrative, err := s.LLM.CompleteText(ctx, llm.Request{System: system, User: user})
	if err != nil {
		return fmt.Errorf("report completion: %w", err)
	}

	key := "reports/" + session.ID + ".txt"
	if _, err := s.Store.SaveWithKey(ctx, key, "text/plain", strings.NewReader(narrative)); err != nil {
		return fmt.Errorf("store report: %w", err)
	}

	session.ReportKey = key
	session.ReportReady = true
	if err := s.Repo.Update(ctx, session); err != nil {
		return fmt.Errorf("mark report ready: %w", err)
	}

	telemetry.Info("interview.report_ready", map[string]any{
		"request_id": requestIDFromContext(ctx),
		"session_id": session.ID,
		"report_key": key,
	})
	return nil
}
