package interviews

import "time"

const (
	StateCountingDown  = "counting_down"
	StateAwaitingReply = "awaiting_reply"
	StateThinking      = "thinking"
	StateComplete      = "complete"
)

const (
	countdownTicks = 12
	tickInterval   = time.Second
	thinkingPoll   = 2 * time.Second
)

// Turn is one question/answer exchange. Failed feedback calls keep their slot
// in the transcript with Error set so the sequence stays monotonic.
type Turn struct {
	Seq       int       `json:"seq"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Feedback  string    `json:"feedback,omitempty"`
	Score     float64   `json:"score,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is the authoritative interview state. All transitions happen server
// side; clients only see snapshots.
type Session struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	State           string    `json:"state"`
	JobContext      string    `json:"jobContext"`
	Summary         string    `json:"summary"`
	Voice           string    `json:"voice"`
	CurrentQuestion string    `json:"currentQuestion"`
	TurnCount       int       `json:"turnCount"`
	Turns           []Turn    `json:"turns"`
	CountdownStart  time.Time `json:"countdownStart"`
	ThinkingSince   time.Time `json:"thinkingSince,omitempty"`
	ClosingMessage  string    `json:"closingMessage,omitempty"`
	ReportRequested bool      `json:"reportRequested"`
	ReportReady     bool      `json:"reportReady"`
	ReportKey       string    `json:"reportKey,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// CountdownRemaining returns how many ticks are left, zero once elapsed.
func (s *Session) CountdownRemaining(now time.Time) int {
	if s.State != StateCountingDown {
		return 0
	}
	elapsed := int(now.Sub(s.CountdownStart) / tickInterval)
	remaining := countdownTicks - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Materialize advances time-driven transitions. It reports whether the
// session changed and should be persisted.
func (s *Session) Materialize(now time.Time) bool {
	if s.State == StateCountingDown && s.CountdownRemaining(now) == 0 {
		s.State = StateAwaitingReply
		s.UpdatedAt = now
		return true
	}
	return false
}

// The status line changes at three countdown checkpoints.
func countdownStatus(remaining int) string {
	switch {
	case remaining > 8:
		return "Preparing your interviewer..."
	case remaining > 4:
		return "Reviewing the role and your background..."
	default:
		return "Starting in a moment..."
	}
}

var thinkingMessages = []string{
	"Considering your answer...",
	"Weighing strengths and gaps...",
	"Drafting feedback...",
}

// thinkingStatus rotates through the synthetic messages as the client polls.
func thinkingStatus(since, now time.Time) string {
	if since.IsZero() {
		return thinkingMessages[0]
	}
	polls := int(now.Sub(since) / thinkingPoll)
	if polls < 0 {
		polls = 0
	}
	return thinkingMessages[polls%len(thinkingMessages)]
}

// Snapshot is the client-facing view of a session.
type Snapshot struct {
	ID              string  `json:"id"`
	State           string  `json:"state"`
	Turns           []Turn  `json:"turns"`
	CurrentQuestion string  `json:"currentQuestion,omitempty"`
	CountdownTicks  int     `json:"countdownTicks,omitempty"`
	StatusText      string  `json:"statusText,omitempty"`
	ClosingMessage  string  `json:"closingMessage,omitempty"`
	InputEnabled    bool    `json:"inputEnabled"`
	ReportReady     bool    `json:"reportReady"`
	AverageScore    float64 `json:"averageScore,omitempty"`
}

// BuildSnapshot renders the session for the client at the given instant.
func BuildSnapshot(s *Session, now time.Time) Snapshot {
	snap := Snapshot{
		ID:          s.ID,
		State:       s.State,
		Turns:       s.Turns,
		ReportReady: s.ReportReady,
	}
	if snap.Turns == nil {
		snap.Turns = []Turn{}
	}
	switch s.State {
	case StateCountingDown:
		remaining := s.CountdownRemaining(now)
		snap.CountdownTicks = remaining
		snap.StatusText = countdownStatus(remaining)
	case StateAwaitingReply:
		snap.CurrentQuestion = s.CurrentQuestion
		snap.InputEnabled = true
	case StateThinking:
		snap.CurrentQuestion = s.CurrentQuestion
		snap.StatusText = thinkingStatus(s.ThinkingSince, now)
	case StateComplete:
		snap.ClosingMessage = s.ClosingMessage
		snap.AverageScore = averageScore(s.Turns)
	}
	return snap
}

// averageScore covers every scored turn; failed turns carry no score and are
// skipped, but a scored zero counts.
func averageScore(turns []Turn) float64 {
	var sum float64
	var n int
	for _, t := range turns {
		if t.Error != "" {
			continue
		}
		sum += t.Score
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
