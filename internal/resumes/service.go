package resumes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"coach-backend/internal/extract"
	"coach-backend/internal/shared/storage/object"
)

// Service manages resume drafts.
type Service struct {
	Drafts DraftRepo
	Scores ScoresRepo
	Store  object.ObjectStore
}

func NewService(drafts DraftRepo, scores ScoresRepo) *Service {
	return &Service{Drafts: drafts, Scores: scores}
}

// SaveDraft validates the payload, assigns IDs to entries that lack one, and
// stores the result. The stored bytes are returned so the client sees exactly
// what a later GET will produce.
func (s *Service) SaveDraft(ctx context.Context, userID string, raw json.RawMessage) (json.RawMessage, error) {
	if s == nil || s.Drafts == nil {
		return nil, errors.New("resume service not configured")
	}
	var draft Draft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return nil, err
	}
	for i := range draft.Experience {
		if draft.Experience[i].ID == "" {
			draft.Experience[i].ID = uuid.NewString()
		}
	}
	for i := range draft.Education {
		if draft.Education[i].ID == "" {
			draft.Education[i].ID = uuid.NewString()
		}
	}
	stored, err := json.Marshal(draft)
	if err != nil {
		return nil, err
	}
	if err := s.Drafts.Put(ctx, userID, stored); err != nil {
		return nil, err
	}
	return stored, nil
}

// GetDraft returns the stored draft payload verbatim.
func (s *Service) GetDraft(ctx context.Context, userID string) (json.RawMessage, error) {
	if s == nil || s.Drafts == nil {
		return nil, errors.New("resume service not configured")
	}
	return s.Drafts.Get(ctx, userID)
}

// Import is the outcome of a stored resume upload.
type Import struct {
	Key       string `json:"key"`
	FileName  string `json:"fileName"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`
	Text      string `json:"text"`
}

// ImportFile stores an uploaded resume under the user's namespace and
// extracts its text so the builder can prefill a draft. The extracted copy is
// persisted next to the original.
func (s *Service) ImportFile(ctx context.Context, userID, fileName string, r io.Reader) (Import, error) {
	if s == nil || s.Store == nil {
		return Import{}, errors.New("object store not configured")
	}
	key, size, mimeType, err := s.Store.Save(ctx, userID, fileName, r)
	if err != nil {
		return Import{}, err
	}
	text, err := extract.ExtractText(ctx, s.Store, key, mimeType, fileName)
	if err != nil {
		return Import{}, err
	}
	return Import{
		Key:       key,
		FileName:  fileName,
		MimeType:  mimeType,
		SizeBytes: size,
		Text:      text,
	}, nil
}

// RecordScore stores an analysis score for dashboard history.
func (s *Service) RecordScore(ctx context.Context, userID string, value int) error {
	if s == nil || s.Scores == nil {
		return nil
	}
	return s.Scores.Create(ctx, Score{
		ID:        uuid.NewString(),
		UserID:    userID,
		Score:     value,
		CreatedAt: time.Now().UTC(),
	})
}
