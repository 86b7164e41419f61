package coach

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"coach-backend/internal/credits"
	"coach-backend/internal/llm"
)

type fakeLLM struct {
	jsonResponse string
	jsonErr      error
	textResponse string
	textErr      error
}

func (f *fakeLLM) CompleteJSON(ctx context.Context, req llm.Request) (json.RawMessage, error) {
	if f.jsonErr != nil {
		return nil, f.jsonErr
	}
	return json.RawMessage(f.jsonResponse), nil
}

func (f *fakeLLM) CompleteText(ctx context.Context, req llm.Request) (string, error) {
	if f.textErr != nil {
		return "", f.textErr
	}
	return f.textResponse, nil
}

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	rg := r.Group("/api/v1")
	NewHandler(svc).RegisterRoutes(rg)
	return r
}

func doPost(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDispatchUnknownAction(t *testing.T) {
	r := newTestRouter(&Service{LLM: &fakeLLM{}})
	w := doPost(t, r, "/api/v1/coach", `{"action":"summon_dragon"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestDispatchMissingAction(t *testing.T) {
	r := newTestRouter(&Service{LLM: &fakeLLM{}})
	w := doPost(t, r, "/api/v1/coach", `{"text":"hello"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestDispatchWrapsResultInDataEnvelope(t *testing.T) {
	svc := &Service{LLM: &fakeLLM{jsonResponse: `{"optimized":"Better text.","changes":["verbs"]}`}}
	r := newTestRouter(svc)

	w := doPost(t, r, "/api/v1/coach", `{"action":"optimize","text":"original text"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Data["optimized"] != "Better text." {
		t.Fatalf("data.optimized = %v", resp.Data["optimized"])
	}
}

func TestDispatchFallsBackToPlainText(t *testing.T) {
	svc := &Service{LLM: &fakeLLM{
		jsonErr:      errors.New("malformed json from provider"),
		textResponse: "Here is your plan in prose.",
	}}
	r := newTestRouter(svc)

	w := doPost(t, r, "/api/v1/coach", `{"action":"negotiation_script","text":"offer details"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data struct {
			Text string `json:"text"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Data.Text != "Here is your plan in prose." {
		t.Fatalf("data.text = %q", resp.Data.Text)
	}
}

func TestDispatchDebitsCreditCategory(t *testing.T) {
	creditSvc := credits.NewService()
	svc := &Service{
		LLM:     &fakeLLM{jsonResponse: `{"headline":"x"}`},
		Credits: creditSvc,
	}
	r := newTestRouter(svc)

	w := doPost(t, r, "/api/v1/coach", `{"action":"linkedin_optimize","text":"profile text"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	snap, err := creditSvc.Get(context.Background(), "")
	if err != nil {
		t.Fatalf("credits.Get: %v", err)
	}
	if got := snap.Balances[credits.CategoryLinkedIn].Remaining; got != 4 {
		t.Fatalf("linkedin remaining = %d, want 4", got)
	}
}

func TestDispatchRejectedWithoutCredits(t *testing.T) {
	creditSvc := credits.NewService()
	ctx := context.Background()
	if _, err := creditSvc.Consume(ctx, "", credits.CategoryLinkedIn, 5); err != nil {
		t.Fatalf("drain linkedin: %v", err)
	}
	if _, err := creditSvc.Consume(ctx, "", credits.CategoryLinkedIn, 10); err != nil {
		t.Fatalf("drain universal: %v", err)
	}

	svc := &Service{LLM: &fakeLLM{jsonResponse: `{"headline":"x"}`}, Credits: creditSvc}
	r := newTestRouter(svc)

	w := doPost(t, r, "/api/v1/coach", `{"action":"linkedin_optimize","text":"profile"}`)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
}

func TestDedicatedOptimizeRoute(t *testing.T) {
	svc := &Service{LLM: &fakeLLM{jsonResponse: `{"optimized":"tighter"}`}}
	r := newTestRouter(svc)

	w := doPost(t, r, "/api/v1/optimize", `{"text":"loose prose"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestGetFeedbackRequiresQuestionAndAnswer(t *testing.T) {
	svc := &Service{LLM: &fakeLLM{jsonResponse: `{"feedback":"ok","score":7}`}}
	r := newTestRouter(svc)

	w := doPost(t, r, "/api/v1/get-feedback", `{"question":"Why us?"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	w = doPost(t, r, "/api/v1/get-feedback", `{"question":"Why us?","answer":"Because."}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}
