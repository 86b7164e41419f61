package workerproc

import (
	"context"
	"errors"
	"testing"

	"coach-backend/internal/interviews"
)

type fakeGenerator struct {
	sessionIDs []string
	requestIDs []string
	err        error
}

func (g *fakeGenerator) GenerateReport(ctx context.Context, sessionID string) error {
	g.sessionIDs = append(g.sessionIDs, sessionID)
	g.requestIDs = append(g.requestIDs, interviews.RequestIDFromContext(ctx))
	return g.err
}

func TestParseMessageEmptyBody(t *testing.T) {
	_, meta, err := ParseMessage("   ")
	var emptyErr ErrEmptyBody
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected ErrEmptyBody, got %v", err)
	}
	if meta.BodyLen != 3 {
		t.Fatalf("expected body len 3, got %d", meta.BodyLen)
	}
}

func TestParseMessageDecodeFailure(t *testing.T) {
	_, meta, err := ParseMessage("{not json")
	var decodeErr ErrDecode
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if meta.BodySHA == "" {
		t.Fatalf("expected body hash for diagnostics")
	}
}

func TestParseMessageMissingSessionID(t *testing.T) {
	_, _, err := ParseMessage(`{"requestId":"req-1","version":1}`)
	var missingErr ErrMissingSessionID
	if !errors.As(err, &missingErr) {
		t.Fatalf("expected ErrMissingSessionID, got %v", err)
	}
	if missingErr.RequestID != "req-1" {
		t.Fatalf("expected request id carried on error, got %q", missingErr.RequestID)
	}
}

func TestParseMessageValid(t *testing.T) {
	msg, meta, err := ParseMessage(`{"sessionId":"sess-1","requestId":"req-1","version":1}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.SessionID != "sess-1" || msg.RequestID != "req-1" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if meta.BodyLen == 0 || meta.BodySHA == "" {
		t.Fatalf("expected populated meta, got %+v", meta)
	}
}

func TestHandleMessageInvokesGenerator(t *testing.T) {
	gen := &fakeGenerator{}
	err := HandleMessage(context.Background(), gen, `{"sessionId":"sess-1","requestId":"req-1","version":1}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gen.sessionIDs) != 1 || gen.sessionIDs[0] != "sess-1" {
		t.Fatalf("expected one call for sess-1, got %v", gen.sessionIDs)
	}
	if gen.requestIDs[0] != "req-1" {
		t.Fatalf("expected request id propagated through context, got %q", gen.requestIDs[0])
	}
}

func TestHandleMessageWrapsProcessFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("llm unavailable")}
	err := HandleMessage(context.Background(), gen, `{"sessionId":"sess-1","requestId":"req-1","version":1}`)
	var procErr ErrProcess
	if !errors.As(err, &procErr) {
		t.Fatalf("expected ErrProcess, got %v", err)
	}
	if procErr.SessionID != "sess-1" || procErr.RequestID != "req-1" {
		t.Fatalf("unexpected error fields: %+v", procErr)
	}
}

func TestHandleMessageParseFailurePassesThrough(t *testing.T) {
	gen := &fakeGenerator{}
	err := HandleMessage(context.Background(), gen, `{"requestId":"req-1"}`)
	var missingErr ErrMissingSessionID
	if !errors.As(err, &missingErr) {
		t.Fatalf("expected ErrMissingSessionID, got %v", err)
	}
	if len(gen.sessionIDs) != 0 {
		t.Fatalf("generator should not run for invalid payloads")
	}
}
