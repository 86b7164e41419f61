package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Client abstracts LLM providers for coaching features.
type Client interface {
	// CompleteJSON runs the request in JSON mode and returns the raw object.
	CompleteJSON(ctx context.Context, req Request) (json.RawMessage, error)
	// CompleteText runs the request and returns plain text.
	CompleteText(ctx context.Context, req Request) (string, error)
}

// Request captures one completion call.
type Request struct {
	System string
	User   string
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// CompleteJSON returns ErrNotImplemented.
func (PlaceholderClient) CompleteJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	_ = ctx
	_ = req
	return nil, ErrNotImplemented
}

// CompleteText returns ErrNotImplemented.
func (PlaceholderClient) CompleteText(ctx context.Context, req Request) (string, error) {
	_ = ctx
	_ = req
	return "", ErrNotImplemented
}
