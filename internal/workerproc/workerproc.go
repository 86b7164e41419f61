package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"coach-backend/internal/interviews"
	"coach-backend/internal/queue"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrMissingSessionID indicates a message missing the session id.
type ErrMissingSessionID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingSessionID) Error() string { return "missing session id" }

// ErrProcess indicates report generation failed after successful parsing.
type ErrProcess struct {
	SessionID string
	RequestID string
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process report"
	}
	return "process report: " + e.Err.Error()
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.SessionID) == "" {
		return msg, meta, ErrMissingSessionID{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

// ReportGenerator produces and stores the narrative for one session.
type ReportGenerator interface {
	GenerateReport(ctx context.Context, sessionID string) error
}

// HandleMessage parses, validates, and processes a message payload.
func HandleMessage(ctx context.Context, generator ReportGenerator, body string) error {
	if generator == nil {
		return errors.New("report generator not configured")
	}

	msg, _, err := ParseMessage(body)
	if err != nil {
		return err
	}

	ctxWithRequest := interviews.WithRequestID(ctx, msg.RequestID)
	if err := generator.GenerateReport(ctxWithRequest, msg.SessionID); err != nil {
		return ErrProcess{SessionID: msg.SessionID, RequestID: msg.RequestID, Err: err}
	}
	return nil
}
