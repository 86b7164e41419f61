package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Client abstracts the speech provider: text-to-speech synthesis and
// audio transcription.
type Client interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("speech provider not configured")

// PlaceholderClient is a stub used when no provider is configured.
type PlaceholderClient struct{}

func (PlaceholderClient) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	_, _, _ = ctx, text, voice
	return nil, ErrNotConfigured
}

func (PlaceholderClient) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	_, _, _ = ctx, audio, mimeType
	return "", ErrNotConfigured
}

// HTTPClient talks to the hosted speech API. Responses carry base64 audio
// under an "audio" field and transcripts under "text".
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPClient constructs a speech client for the given base URL.
func NewHTTPClient(baseURL, apiKey string) (*HTTPClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("SPEECH_BASE_URL is required")
	}
	timeout := 60 * time.Second
	if raw := strings.TrimSpace(os.Getenv("SPEECH_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type synthesizeRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

type synthesizeResponse struct {
	Audio string `json:"audio"`
	Error string `json:"error,omitempty"`
}

// Synthesize converts text to audio bytes.
func (c *HTTPClient) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text is required")
	}

	payload, err := json.Marshal(synthesizeRequest{Text: text, Voice: voice})
	if err != nil {
		return nil, err
	}

	body, err := c.post(ctx, "/v1/speech", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	var parsed synthesizeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("speech response parse: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("speech error: %s", parsed.Error)
	}
	if parsed.Audio == "" {
		return nil, fmt.Errorf("speech response missing audio")
	}

	audio, err := base64.StdEncoding.DecodeString(parsed.Audio)
	if err != nil {
		return nil, fmt.Errorf("speech audio decode: %w", err)
	}
	return audio, nil
}

type transcribeRequest struct {
	Audio    string `json:"audio"`
	MimeType string `json:"mimeType,omitempty"`
}

type transcribeResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// Transcribe converts recorded audio to text.
func (c *HTTPClient) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("audio is required")
	}

	payload, err := json.Marshal(transcribeRequest{
		Audio:    base64.StdEncoding.EncodeToString(audio),
		MimeType: mimeType,
	})
	if err != nil {
		return "", err
	}

	body, err := c.post(ctx, "/v1/transcriptions", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}

	var parsed transcribeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("transcribe response parse: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("transcribe error: %s", parsed.Error)
	}
	if strings.TrimSpace(parsed.Text) == "" {
		return "", fmt.Errorf("transcribe response empty text")
	}
	return parsed.Text, nil
}

func (c *HTTPClient) post(ctx context.Context, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, fmt.Errorf("speech request timeout: %w", err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("speech provider status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}

var _ Client = (*HTTPClient)(nil)
