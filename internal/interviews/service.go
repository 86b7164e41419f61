package interviews

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"coach-backend/internal/llm"
	"coach-backend/internal/missions"
	"coach-backend/internal/queue"
	"coach-backend/internal/shared/metrics"
	"coach-backend/internal/shared/storage/object"
	"coach-backend/internal/shared/telemetry"
	"coach-backend/internal/speech"

	"coach-backend/internal/credits"
)

// Service drives the interview state machine.
type Service struct {
	Repo     Repo
	Results  ResultsRepo
	Credits  *credits.Service
	LLM      llm.Client
	Speech   speech.Client
	Queue    queue.Client
	Missions missions.Repo
	Store    object.ObjectStore
	Voice    string
}

// Start opens a new session in counting_down and requests a best-effort
// job-context summary in the background.
func (s *Service) Start(ctx context.Context, userID, jobContext, voice string) (*Session, error) {
	jobContext = strings.TrimSpace(jobContext)
	if s.Missions != nil {
		if mission, err := s.Missions.Get(ctx, userID); err == nil {
			jobContext = mergeMission(jobContext, mission)
		}
	}
	if jobContext == "" {
		return nil, ErrJobContextEmpty
	}

	if s.Credits != nil {
		ok, _, err := s.Credits.CanConsume(ctx, userID, credits.CategoryInterview, 1)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, credits.ErrInsufficientCredits
		}
	}

	if voice == "" {
		voice = s.Voice
	}
	now := time.Now().UTC()
	session := &Session{
		ID:              uuid.NewString(),
		UserID:          userID,
		State:           StateCountingDown,
		JobContext:      jobContext,
		Summary:         fallbackSummary,
		Voice:           voice,
		CurrentQuestion: fallbackOpeningQuestion,
		Turns:           []Turn{},
		CountdownStart:  now,
		CreatedAt:       now,
	}
	if err := s.Repo.Create(ctx, session); err != nil {
		return nil, err
	}

	if s.Credits != nil {
		if _, err := s.Credits.Consume(ctx, userID, credits.CategoryInterview, 1); err != nil {
			return nil, err
		}
	}

	metrics.IncSessionStarted()
	telemetry.Info("interview.start", map[string]any{
		"request_id": requestIDFromContext(ctx),
		"user_id":    userID,
		"session_id": session.ID,
	})

	go s.summarizeAsync(backgroundWithRequestID(ctx), session.ID)

	return session, nil
}

// Get returns the session snapshot, advancing the countdown when elapsed.
func (s *Service) Get(ctx context.Context, userID, sessionID string) (Snapshot, error) {
	session, err := s.loadOwned(ctx, userID, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	now := time.Now().UTC()
	if session.Materialize(now) {
		if err := s.Repo.Update(ctx, session); err != nil {
			return Snapshot{}, err
		}
	}
	return BuildSnapshot(session, now), nil
}

// ReplyResult is the outcome of one turn.
type ReplyResult struct {
	Turn      Turn     `json:"turn"`
	Snapshot  Snapshot `json:"session"`
	AudioB64  string   `json:"audio,omitempty"`
	Completed bool     `json:"completed"`
}

type feedbackPayload struct {
	Feedback     string  `json:"feedback"`
	Score        float64 `json:"score"`
	NextQuestion string  `json:"nextQuestion"`
	Done         bool    `json:"done"`
}

// Reply processes one answer. The turnSeq must be exactly TurnCount+1 so a
// late submission from a superseded client view cannot land out of order.
func (s *Service) Reply(ctx context.Context, userID, sessionID, answer string, turnSeq int) (ReplyResult, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return ReplyResult{}, errors.New("answer is required")
	}

	if sessionID == "" {
		return ReplyResult{}, ErrNotFound
	}

	// Claim the turn atomically: the state and fence checks and the move to
	// thinking land as one write, so two replies racing with the same
	// sequence cannot both pass the fence.
	now := time.Now().UTC()
	session, err := s.Repo.Transition(ctx, sessionID, func(candidate *Session) error {
		if candidate.UserID != userID {
			return ErrNotFound
		}
		candidate.Materialize(now)

		switch candidate.State {
		case StateComplete:
			return ErrSessionComplete
		case StateCountingDown:
			return ErrCountdownActive
		case StateThinking:
			return ErrReplyInFlight
		}

		if turnSeq != candidate.TurnCount+1 {
			metrics.IncStaleTurn()
			telemetry.Warn("interview.stale_turn", map[string]any{
				"request_id": requestIDFromContext(ctx),
				"session_id": candidate.ID,
				"got_seq":    turnSeq,
				"want_seq":   candidate.TurnCount + 1,
			})
			return ErrStaleTurn
		}

		candidate.State = StateThinking
		candidate.ThinkingSince = now
		return nil
	})
	if errors.Is(err, ErrConflict) {
		// Another reply claimed the session between our read and write.
		return ReplyResult{}, ErrReplyInFlight
	}
	if err != nil {
		return ReplyResult{}, err
	}

	startedAt := time.Now()
	payload, llmErr := s.requestFeedback(ctx, session, answer)
	metrics.ObserveTurnDurationMs(float64(time.Since(startedAt).Milliseconds()))

	turn := Turn{
		Seq:       session.TurnCount + 1,
		Question:  session.CurrentQuestion,
		Answer:    answer,
		CreatedAt: time.Now().UTC(),
	}

	if llmErr != nil {
		// No retry: the error takes a slot in the transcript and the user
		// may answer again under the next sequence number.
		turn.Error = "We couldn't process this answer. Please try again."
		session.Turns = append(session.Turns, turn)
		session.TurnCount++
		session.State = StateAwaitingReply
		session.ThinkingSince = time.Time{}
		if err := s.Repo.Update(ctx, session); err != nil {
			return ReplyResult{}, err
		}
		telemetry.Error("interview.feedback_failed", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"session_id": session.ID,
			"turn_seq":   turn.Seq,
			"error":      llmErr.Error(),
		})
		return ReplyResult{Turn: turn, Snapshot: BuildSnapshot(session, time.Now().UTC())}, nil
	}

	turn.Feedback = payload.Feedback
	turn.Score = payload.Score
	session.Turns = append(session.Turns, turn)
	session.TurnCount++
	session.ThinkingSince = time.Time{}
	metrics.IncTurn()

	if payload.Done {
		return s.complete(ctx, session, turn)
	}

	session.CurrentQuestion = payload.NextQuestion
	if session.CurrentQuestion == "" {
		session.CurrentQuestion = fallbackOpeningQuestion
	}
	session.State = StateAwaitingReply
	if err := s.Repo.Update(ctx, session); err != nil {
		return ReplyResult{}, err
	}

	result := ReplyResult{Turn: turn, Snapshot: BuildSnapshot(session, time.Now().UTC())}
	if s.Speech != nil {
		if audio, err := s.Speech.Synthesize(ctx, session.CurrentQuestion, session.Voice); err == nil {
			result.AudioB64 = base64.StdEncoding.EncodeToString(audio)
		}
	}
	return result, nil
}

func (s *Service) complete(ctx context.Context, session *Session, turn Turn) (ReplyResult, error) {
	session.State = StateComplete
	session.ClosingMessage = turn.Feedback
	if session.ClosingMessage == "" {
		session.ClosingMessage = fallbackClosingMessage
	}

	enqueue := false
	if !session.ReportRequested {
		session.ReportRequested = true
		enqueue = true
	}
	if err := s.Repo.Update(ctx, session); err != nil {
		return ReplyResult{}, err
	}

	if s.Results != nil {
		result := Result{
			ID:          uuid.NewString(),
			UserID:      session.UserID,
			SessionID:   session.ID,
			Score:       averageScore(session.Turns),
			Turns:       session.TurnCount,
			CompletedAt: time.Now().UTC(),
		}
		if err := s.Results.Create(ctx, result); err != nil {
			telemetry.Error("interview.result_persist_failed", map[string]any{
				"request_id": requestIDFromContext(ctx),
				"session_id": session.ID,
				"error":      err.Error(),
			})
		}
	}

	if enqueue && s.Queue != nil {
		msg := queue.Message{
			SessionID:  session.ID,
			RequestID:  requestIDFromContext(ctx),
			EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
			Version:    1,
		}
		if err := s.Queue.Send(ctx, msg); err != nil {
			telemetry.Error("interview.report_enqueue_failed", map[string]any{
				"request_id": requestIDFromContext(ctx),
				"session_id": session.ID,
				"error":      err.Error(),
			})
		}
	}

	metrics.IncSessionCompleted()
	metrics.ObserveSessionDurationMs(float64(time.Since(session.CreatedAt).Milliseconds()))
	telemetry.Info("interview.complete", map[string]any{
		"request_id": requestIDFromContext(ctx),
		"session_id": session.ID,
		"turns":      session.TurnCount,
	})

	return ReplyResult{
		Turn:      turn,
		Snapshot:  BuildSnapshot(session, time.Now().UTC()),
		Completed: true,
	}, nil
}

// Report returns the generated narrative once the worker has stored it.
func (s *Service) Report(ctx context.Context, userID, sessionID string) (string, error) {
	session, err := s.loadOwned(ctx, userID, sessionID)
	if err != nil {
		return "", err
	}
	if !session.ReportRequested {
		return "", ErrReportNotStarted
	}
	if !session.ReportReady || session.ReportKey == "" {
		return "", ErrReportNotReady
	}
	if s.Store == nil {
		return "", errors.New("object store not configured")
	}
	reader, err := s.Store.Open(ctx, session.ReportKey)
	if err != nil {
		return "", fmt.Errorf("open report: %w", err)
	}
	defer reader.Close()
	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read report: %w", err)
	}
	return string(raw), nil
}

func (s *Service) requestFeedback(ctx context.Context, session *Session, answer string) (feedbackPayload, error) {
	if s.LLM == nil {
		return feedbackPayload{}, errors.New("llm client not configured")
	}
	raw, err := s.LLM.CompleteJSON(ctx, llm.Request{
		System: feedbackSystemPrompt,
		User:   buildFeedbackUserPrompt(session, answer),
	})
	if err != nil {
		return feedbackPayload{}, err
	}
	var payload feedbackPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return feedbackPayload{}, fmt.Errorf("decode feedback: %w", err)
	}
	if payload.Feedback == "" {
		return feedbackPayload{}, errors.New("feedback missing from response")
	}
	return payload, nil
}

func (s *Service) summarizeAsync(ctx context.Context, sessionID string) {
	defer func() {
		if r := recover(); r != nil {
			telemetry.Error("interview.summarize_panic", map[string]any{
				"session_id": sessionID,
				"panic":      fmt.Sprint(r),
			})
		}
	}()

	session, err := s.Repo.Get(ctx, sessionID)
	if err != nil {
		return
	}
	if s.LLM == nil || len(session.JobContext) < minSummarizableContext {
		return
	}

	raw, err := s.LLM.CompleteJSON(ctx, llm.Request{
		System: summarySystemPrompt,
		User:   buildSummaryUserPrompt(session.JobContext),
	})
	if err != nil {
		telemetry.Warn("interview.summarize_failed", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return
	}
	var payload struct {
		Summary         string `json:"summary"`
		OpeningQuestion string `json:"openingQuestion"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}

	// Reload: the countdown may have finished or a reply landed meanwhile.
	session, err = s.Repo.Get(ctx, sessionID)
	if err != nil {
		return
	}
	if session.State != StateCountingDown {
		return
	}
	if payload.Summary != "" {
		session.Summary = payload.Summary
	}
	if payload.OpeningQuestion != "" {
		session.CurrentQuestion = payload.OpeningQuestion
	}
	if err := s.Repo.Update(ctx, session); err != nil {
		telemetry.Warn("interview.summarize_store_failed", map[string]any{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
}

func (s *Service) loadOwned(ctx context.Context, userID, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, ErrNotFound
	}
	session, err := s.Repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrNotFound
	}
	return session, nil
}

func mergeMission(jobContext string, mission missions.Mission) string {
	if mission.Empty() {
		return jobContext
	}
	var parts []string
	if mission.TargetRole != "" {
		parts = append(parts, "Target role: "+mission.TargetRole)
	}
	if mission.TargetCompany != "" {
		parts = append(parts, "Target company: "+mission.TargetCompany)
	}
	if mission.Seniority != "" {
		parts = append(parts, "Seniority: "+mission.Seniority)
	}
	if mission.JobDescription != "" {
		parts = append(parts, "Job description:\n"+mission.JobDescription)
	}
	missionText := strings.Join(parts, "\n")
	if jobContext == "" {
		return missionText
	}
	return jobContext + "\n\n" + missionText
}
