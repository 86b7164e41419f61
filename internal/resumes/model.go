package resumes

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Draft is the resume builder's working document. Experience and education
// entries carry stable IDs so reordering and edits address entries by
// identity rather than by array position.
type Draft struct {
	Personal   Personal         `json:"personal"`
	Summary    string           `json:"summary"`
	Experience []ExperienceItem `json:"experience"`
	Education  []EducationItem  `json:"education"`
	Skills     Skills           `json:"skills"`
}

// Skills accepts either free text ("Go, SQL") or a list of discrete entries;
// clients have shipped both shapes. The original JSON form is kept so a saved
// draft reloads exactly as written.
type Skills struct {
	raw json.RawMessage
}

func (s *Skills) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		s.raw = nil
		return nil
	}
	switch trimmed[0] {
	case '"':
		var single string
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
	case '[':
		var list []string
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
	default:
		return errors.New("skills must be a string or an array of strings")
	}
	s.raw = append(json.RawMessage(nil), trimmed...)
	return nil
}

func (s Skills) MarshalJSON() ([]byte, error) {
	if len(s.raw) == 0 {
		return []byte("null"), nil
	}
	return s.raw, nil
}

// Values returns the skills as discrete entries regardless of stored shape.
func (s Skills) Values() []string {
	if len(s.raw) == 0 {
		return nil
	}
	if s.raw[0] == '"' {
		var single string
		if err := json.Unmarshal(s.raw, &single); err != nil {
			return nil
		}
		var out []string
		for _, part := range strings.Split(single, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	}
	var list []string
	if err := json.Unmarshal(s.raw, &list); err != nil {
		return nil
	}
	return list
}

type Personal struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	LinkedIn string `json:"linkedin"`
}

type ExperienceItem struct {
	ID          string `json:"id"`
	Company     string `json:"company"`
	Role        string `json:"role"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
}

type EducationItem struct {
	ID        string `json:"id"`
	School    string `json:"school"`
	Degree    string `json:"degree"`
	Field     string `json:"field"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Score is one resume analysis result kept for the dashboard.
type Score struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}
