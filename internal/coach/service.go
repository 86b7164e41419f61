package coach

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"coach-backend/internal/credits"
	"coach-backend/internal/extract"
	"coach-backend/internal/llm"
	"coach-backend/internal/missions"
	"coach-backend/internal/resumes"
	"coach-backend/internal/shared/metrics"
	"coach-backend/internal/shared/telemetry"
	"coach-backend/internal/speech"
)

// Action names accepted by the dispatcher.
const (
	ActionCareerPlan         = "career_plan"
	ActionLinkedInOptimize   = "linkedin_optimize"
	ActionCoverLetter        = "cover_letter"
	ActionAnalyzeResume      = "analyze_resume"
	ActionParseResume        = "parse_resume"
	ActionOptimize           = "optimize"
	ActionGenerateReport     = "generate_report"
	ActionStrategicQuestions = "strategic_questions"
	ActionNegotiationScript  = "negotiation_script"
	ActionValueFollowup      = "value_followup"
	ActionTranscribe         = "transcribe"
)

// Each billable action debits one category. Transcription rides along with
// the interview flow and is free.
var actionCategories = map[string]credits.Category{
	ActionCareerPlan:         credits.CategoryUniversal,
	ActionLinkedInOptimize:   credits.CategoryLinkedIn,
	ActionCoverLetter:        credits.CategoryRewrite,
	ActionAnalyzeResume:      credits.CategoryResume,
	ActionParseResume:        credits.CategoryResume,
	ActionOptimize:           credits.CategoryRewrite,
	ActionGenerateReport:     credits.CategoryInterview,
	ActionStrategicQuestions: credits.CategoryUniversal,
	ActionNegotiationScript:  credits.CategoryUniversal,
	ActionValueFollowup:      credits.CategoryUniversal,
}

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrMissingInput  = errors.New("missing input for action")
)

// Request is the shared action payload; actions read the fields they need.
type Request struct {
	Action         string `json:"action"`
	Text           string `json:"text"`
	ResumeText     string `json:"resumeText"`
	JobDescription string `json:"jobDescription"`
	Question       string `json:"question"`
	Answer         string `json:"answer"`
	Tone           string `json:"tone"`
	File           string `json:"file"`
	FileName       string `json:"fileName"`
	MimeType       string `json:"mimeType"`
}

// Service executes coach actions against the LLM and speech providers.
type Service struct {
	LLM      llm.Client
	Speech   speech.Client
	Credits  *credits.Service
	Resumes  *resumes.Service
	Missions missions.Repo
}

// Run dispatches one action and returns the payload for the data envelope.
func (s *Service) Run(ctx context.Context, userID string, req Request) (any, error) {
	handler, ok := s.handlerFor(req.Action)
	if !ok {
		return nil, ErrUnknownAction
	}

	if cat, billable := actionCategories[req.Action]; billable && s.Credits != nil {
		ok, _, err := s.Credits.CanConsume(ctx, userID, cat, 1)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, credits.ErrInsufficientCredits
		}
	}

	result, err := handler(ctx, userID, req)
	if err != nil {
		metrics.IncCoachActionFailed()
		return nil, err
	}

	if cat, billable := actionCategories[req.Action]; billable && s.Credits != nil {
		if _, err := s.Credits.Consume(ctx, userID, cat, 1); err != nil {
			telemetry.Error("coach.consume_failed", map[string]any{
				"user_id": userID,
				"action":  req.Action,
				"error":   err.Error(),
			})
		}
	}

	metrics.IncCoachAction()
	return result, nil
}

type actionFunc func(ctx context.Context, userID string, req Request) (any, error)

func (s *Service) handlerFor(action string) (actionFunc, bool) {
	switch action {
	case ActionCareerPlan:
		return s.careerPlan, true
	case ActionLinkedInOptimize:
		return s.linkedinOptimize, true
	case ActionCoverLetter:
		return s.coverLetter, true
	case ActionAnalyzeResume:
		return s.analyzeResume, true
	case ActionParseResume:
		return s.parseResume, true
	case ActionOptimize:
		return s.optimize, true
	case ActionGenerateReport:
		return s.generateReport, true
	case ActionStrategicQuestions:
		return s.strategicQuestions, true
	case ActionNegotiationScript:
		return s.negotiationScript, true
	case ActionValueFollowup:
		return s.valueFollowup, true
	case ActionTranscribe:
		return s.transcribe, true
	}
	return nil, false
}

// completeJSON runs the prompt in JSON mode. When the provider cannot produce
// parseable JSON the action degrades to plain text under a "text" key rather
// than failing the request.
func (s *Service) completeJSON(ctx context.Context, system, user string) (any, error) {
	if s.LLM == nil {
		return nil, errors.New("llm client not configured")
	}
	raw, err := s.LLM.CompleteJSON(ctx, llm.Request{System: system, User: user})
	if err == nil {
		var payload map[string]any
		if jsonErr := json.Unmarshal(raw, &payload); jsonErr == nil {
			return payload, nil
		}
		return gin.H{"text": string(raw)}, nil
	}

	text, textErr := s.LLM.CompleteText(ctx, llm.Request{System: system, User: user})
	if textErr != nil {
		return nil, err
	}
	telemetry.Warn("coach.json_fallback", map[string]any{"error": err.Error()})
	return gin.H{"text": text}, nil
}

func (s *Service) careerPlan(ctx context.Context, userID string, req Request) (any, error) {
	input := req.Text
	if s.Missions != nil {
		if mission, err := s.Missions.Get(ctx, userID); err == nil && !mission.Empty() {
			input = fmt.Sprintf("Mission: role %s at %s.\n%s", mission.TargetRole, mission.TargetCompany, input)
		}
	}
	if strings.TrimSpace(input) == "" {
		return nil, ErrMissingInput
	}
	return s.completeJSON(ctx, careerPlanPrompt, input)
}

func (s *Service) linkedinOptimize(ctx context.Context, userID string, req Request) (any, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrMissingInput
	}
	user := "Profile:\n" + req.Text
	if req.JobDescription != "" {
		user += "\n\nTarget role:\n" + req.JobDescription
	}
	return s.completeJSON(ctx, linkedinOptimizePrompt, user)
}

func (s *Service) coverLetter(ctx context.Context, userID string, req Request) (any, error) {
	if strings.TrimSpace(req.ResumeText) == "" || strings.TrimSpace(req.JobDescription) == "" {
		return nil, ErrMissingInput
	}
	user := "Resume:\n" + req.ResumeText + "\n\nJob description:\n" + req.JobDescription
	if req.Tone != "" {
		user += "\n\nTone: " + req.Tone
	}
	return s.completeJSON(ctx, coverLetterPrompt, user)
}

func (s *Service) analyzeResume(ctx context.Context, userID string, req Request) (any, error) {
	if strings.TrimSpace(req.ResumeText) == "" {
		return nil, ErrMissingInput
	}
	user := "Resume:\n" + req.ResumeText
	if req.JobDescription != "" {
		user += "\n\nJob description:\n" + req.JobDescription
	}
	result, err := s.completeJSON(ctx, analyzeResumePrompt, user)
	if err != nil {
		return nil, err
	}
	if payload, ok := result.(map[string]any); ok {
		if raw, ok := payload["score"].(float64); ok && s.Resumes != nil {
			if err := s.Resumes.RecordScore(ctx, userID, int(raw)); err != nil {
				telemetry.Warn("coach.score_persist_failed", map[string]any{
					"user_id": userID,
					"error":   err.Error(),
				})
			}
		}
	}
	return result, nil
}

func (s *Service) parseResume(ctx context.Context, userID string, req Request) (any, error) {
	text := req.ResumeText
	if text == "" && req.File != "" {
		data, err := base64.StdEncoding.DecodeString(req.File)
		if err != nil {
			return nil, fmt.Errorf("decode file: %w", err)
		}
		extracted, err := extract.ExtractTextFromBytes(ctx, data, req.MimeType, req.FileName)
		if err != nil {
			return nil, fmt.Errorf("extract text: %w", err)
		}
		text = extracted
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrMissingInput
	}
	return s.completeJSON(ctx, parseResumePrompt, "Resume text:\n"+text)
}

func (s *Service) optimize(ctx context.Context, userID string, req Request) (any, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrMissingInput
	}
	user := "Original:\n" + req.Text
	if req.JobDescription != "" {
		user += "\n\nJob description:\n" + req.JobDescription
	}
	return s.completeJSON(ctx, optimizePrompt, user)
}

func (s *Service) generateReport(ctx context.Context, userID string, req Request) (any, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrMissingInput
	}
	if s.LLM == nil {
		return nil, errors.New("llm client not configured")
	}
	report, err := s.LLM.CompleteText(ctx, llm.Request{System: reportPrompt, User: req.Text})
	if err != nil {
		return nil, err
	}
	return gin.H{"report": report}, nil
}

func (s *Service) strategicQuestions(ctx context.Context, userID string, req Request) (any, error) {
	input := firstNonEmpty(req.Text, req.JobDescription)
	if input == "" {
		return nil, ErrMissingInput
	}
	return s.completeJSON(ctx, strategicQuestionsPrompt, input)
}

func (s *Service) negotiationScript(ctx context.Context, userID string, req Request) (any, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrMissingInput
	}
	return s.completeJSON(ctx, negotiationScriptPrompt, req.Text)
}

func (s *Service) valueFollowup(ctx context.Context, userID string, req Request) (any, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrMissingInput
	}
	return s.completeJSON(ctx, valueFollowupPrompt, req.Text)
}

func (s *Service) transcribe(ctx context.Context, userID string, req Request) (any, error) {
	if req.File == "" {
		return nil, ErrMissingInput
	}
	if s.Speech == nil {
		return nil, speech.ErrNotConfigured
	}
	audio, err := base64.StdEncoding.DecodeString(req.File)
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	text, err := s.Speech.Transcribe(ctx, audio, req.MimeType)
	if err != nil {
		return nil, err
	}
	return gin.H{"text": text}, nil
}

// Feedback and model answers back the dedicated interview-prep routes.
func (s *Service) Feedback(ctx context.Context, question, answer string) (any, error) {
	if strings.TrimSpace(question) == "" || strings.TrimSpace(answer) == "" {
		return nil, ErrMissingInput
	}
	user := "Question: " + question + "\nAnswer: " + answer
	return s.completeJSON(ctx, feedbackPrompt, user)
}

func (s *Service) ModelAnswer(ctx context.Context, question, jobDescription string) (any, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrMissingInput
	}
	user := "Question: " + question
	if jobDescription != "" {
		user += "\nRole context:\n" + jobDescription
	}
	return s.completeJSON(ctx, modelAnswerPrompt, user)
}

func (s *Service) AnalyzeJD(ctx context.Context, jobDescription string) (any, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return nil, ErrMissingInput
	}
	return s.completeJSON(ctx, analyzeJDPrompt, jobDescription)
}

func (s *Service) Speak(ctx context.Context, text, voice string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrMissingInput
	}
	if s.Speech == nil {
		return "", speech.ErrNotConfigured
	}
	audio, err := s.Speech.Synthesize(ctx, text, voice)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(audio), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
