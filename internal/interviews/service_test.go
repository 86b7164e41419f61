package interviews

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coach-backend/internal/credits"
	"coach-backend/internal/llm"
	"coach-backend/internal/queue"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

type fakeLLM struct {
	mu        sync.Mutex
	responses []string
	err       error
}

func (f *fakeLLM) CompleteJSON(ctx context.Context, req llm.Request) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return nil, errors.New("no response queued")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return json.RawMessage(resp), nil
}

func (f *fakeLLM) CompleteText(ctx context.Context, req llm.Request) (string, error) {
	raw, err := f.CompleteJSON(ctx, req)
	return string(raw), err
}

type fakeQueue struct {
	mu       sync.Mutex
	messages []queue.Message
}

func (f *fakeQueue) Send(ctx context.Context, msg queue.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeQueue) sent() []queue.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]queue.Message(nil), f.messages...)
}

const shortJobContext = "Senior Go engineer at Acme"

func newTestService(t *testing.T) (*Service, *fakeLLM, *fakeQueue) {
	t.Helper()
	client := setupTestRedis(t)
	llmClient := &fakeLLM{}
	q := &fakeQueue{}
	svc := &Service{
		Repo:    NewRedisRepo(client),
		Results: NewMemoryResultsRepo(),
		Credits: credits.NewService(),
		LLM:     llmClient,
		Queue:   q,
		Voice:   "nova",
	}
	return svc, llmClient, q
}

// skipCountdown rewinds the countdown start so the session is ready for replies.
func skipCountdown(t *testing.T, svc *Service, sessionID string) {
	t.Helper()
	ctx := context.Background()
	session, err := svc.Repo.Get(ctx, sessionID)
	require.NoError(t, err)
	session.CountdownStart = time.Now().UTC().Add(-time.Duration(countdownTicks+1) * tickInterval)
	require.NoError(t, svc.Repo.Update(ctx, session))
}

func TestStartRequiresJobContext(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Start(context.Background(), "user-1", "   ", "")
	assert.ErrorIs(t, err, ErrJobContextEmpty)
}

func TestStartEntersCountdownAndConsumesCredit(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, "user-1", shortJobContext, "")
	require.NoError(t, err)
	assert.Equal(t, StateCountingDown, session.State)
	assert.Equal(t, fallbackOpeningQuestion, session.CurrentQuestion)
	assert.Equal(t, "nova", session.Voice)

	snap, err := svc.Credits.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Balances[credits.CategoryInterview].Remaining)
}

func TestStartRejectedWithoutCredits(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	// Drain the interview bucket and its universal backup.
	_, err := svc.Credits.Consume(ctx, "user-1", credits.CategoryInterview, 5)
	require.NoError(t, err)
	_, err = svc.Credits.Consume(ctx, "user-1", credits.CategoryInterview, 10)
	require.NoError(t, err)

	_, err = svc.Start(ctx, "user-1", shortJobContext, "")
	assert.ErrorIs(t, err, credits.ErrInsufficientCredits)
}

func TestCountdownElapsesIntoAwaitingReply(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, "user-1", shortJobContext, "")
	require.NoError(t, err)

	snap, err := svc.Get(ctx, "user-1", session.ID)
	require.NoError(t, err)
	assert.Equal(t, StateCountingDown, snap.State)
	assert.False(t, snap.InputEnabled)
	assert.NotEmpty(t, snap.StatusText)

	skipCountdown(t, svc, session.ID)

	snap, err = svc.Get(ctx, "user-1", session.ID)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingReply, snap.State)
	assert.True(t, snap.InputEnabled)
	assert.Equal(t, fallbackOpeningQuestion, snap.CurrentQuestion)
}

func TestReplyDuringCountdownRejected(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, "user-1", shortJobContext, "")
	require.NoError(t, err)

	_, err = svc.Reply(ctx, "user-1", session.ID, "my answer", 1)
	assert.ErrorIs(t, err, ErrCountdownActive)
}

func TestReplyStaleTurnRejected(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, "user-1", shortJobContext, "")
	require.NoError(t, err)
	skipCountdown(t, svc, session.ID)

	_, err = svc.Reply(ctx, "user-1", session.ID, "my answer", 2)
	assert.ErrorIs(t, err, ErrStaleTurn)
	_, err = svc.Reply(ctx, "user-1", session.ID, "my answer", 0)
	assert.ErrorIs(t, err, ErrStaleTurn)
}

// gateLLM blocks inside the feedback call until released so a test can hold
// one reply in flight while issuing another.
type gateLLM struct {
	entered  chan struct{}
	release  chan struct{}
	response string
}

func (f *gateLLM) CompleteJSON(ctx context.Context, req llm.Request) (json.RawMessage, error) {
	f.entered <- struct{}{}
	<-f.release
	return json.RawMessage(f.response), nil
}

func (f *gateLLM) CompleteText(ctx context.Context, req llm.Request) (string, error) {
	raw, err := f.CompleteJSON(ctx, req)
	return string(raw), err
}

func TestReplyConcurrentSameSequenceRejected(t *testing.T) {
	client := setupTestRedis(t)
	gate := &gateLLM{
		entered:  make(chan struct{}, 1),
		release:  make(chan struct{}),
		response: `{"feedback":"Good.","score":8,"nextQuestion":"And then?","done":false}`,
	}
	svc := &Service{
		Repo:    NewRedisRepo(client),
		Results: NewMemoryResultsRepo(),
		Credits: credits.NewService(),
		LLM:     gate,
		Queue:   &fakeQueue{},
		Voice:   "nova",
	}
	ctx := context.Background()

	session, err := svc.Start(ctx, "user-1", shortJobContext, "")
	require.NoError(t, err)
	skipCountdown(t, svc, session.ID)

	type replyOutcome struct {
		result ReplyResult
		err    error
	}
	first := make(chan replyOutcome, 1)
	go func() {
		result, err := svc.Reply(ctx, "user-1", session.ID, "first answer", 1)
		first <- replyOutcome{result, err}
	}()

	// The first reply holds the claim while its feedback call is in flight.
	<-gate.entered
	_, err = svc.Reply(ctx, "user-1", session.ID, "second answer", 1)
	assert.ErrorIs(t, err, ErrReplyInFlight)

	close(gate.release)
	outcome := <-first
	require.NoError(t, outcome.err)
	assert.Equal(t, "first answer", outcome.result.Turn.Answer)

	stored, err := svc.Repo.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TurnCount)
	require.Len(t, stored.Turns, 1)
	assert.Equal(t, "first answer", stored.Turns[0].Answer)
}

func TestTransitionConflictSurfaces(t *testing.T) {
	client := setupTestRedis(t)
	repo := NewRedisRepo(client)
	ctx := context.Background()

	session := &Session{ID: "sess-1", UserID: "user-1", State: StateAwaitingReply}
	require.NoError(t, repo.Create(ctx, session))

	// A write landing between the watched read and the transaction must
	// abort the transition instead of being overwritten.
	_, err := repo.Transition(ctx, session.ID, func(candidate *Session) error {
		stale := *candidate
		stale.CurrentQuestion = "changed elsewhere"
		require.NoError(t, repo.Update(ctx, &stale))
		return nil
	})
	assert.ErrorIs(t, err, ErrConflict)

	stored, err := repo.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "changed elsewhere", stored.CurrentQuestion)
}

func TestAverageScoreCountsScoredZero(t *testing.T) {
	turns := []Turn{
		{Seq: 1, Score: 0},
		{Seq: 2, Score: 8},
		{Seq: 3, Error: "We couldn't process this answer. Please try again."},
	}
	assert.Equal(t, 4.0, averageScore(turns))
}

func TestReplyAppendsTurnAndAdvancesQuestion(t *testing.T) {
	svc, llmClient, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, "user-1", shortJobContext, "")
	require.NoError(t, err)
	skipCountdown(t, svc, session.ID)

	llmClient.mu.Lock()
	llmClient.responses = []string{`{"feedback":"Solid answer.","score":7.5,"nextQuestion":"Tell me about a hard bug.","done":false}`}
	llmClient.mu.Unlock()

	result, err := svc.Reply(ctx, "user-1", session.ID, "I led the payments team.", 1)
	require.NoError(t, err)
	assert.False(t, result.Completed)
	assert.Equal(t, 1, result.Turn.Seq)
	assert.Equal(t, "Solid answer.", result.Turn.Feedback)
	assert.InDelta(t, 7.5, result.Turn.Score, 0.001)
	assert.Equal(t, StateAwaitingReply, result.Snapshot.State)
	assert.Equal(t, "Tell me about a hard bug.", result.Snapshot.CurrentQuestion)
	assert.Len(t, result.Snapshot.Turns, 1)
}

func TestReplyFailureLeavesInlineErrorEntry(t *testing.T) {
	svc, llmClient, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, "user-1", shortJobContext, "")
	require.NoError(t, err)
	skipCountdown(t, svc, session.ID)

	llmClient.mu.Lock()
	llmClient.err = errors.New("upstream timeout")
	llmClient.mu.Unlock()

	result, err := svc.Reply(ctx, "user-1", session.ID, "my answer", 1)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Turn.Error)
	assert.Equal(t, StateAwaitingReply, result.Snapshot.State)
	assert.True(t, result.Snapshot.InputEnabled)

	// The failed attempt took a sequence slot; the retry uses the next one.
	llmClient.mu.Lock()
	llmClient.err = nil
	llmClient.responses = []string{`{"feedback":"Better.","score":6,"nextQuestion":"Next?","done":false}`}
	llmClient.mu.Unlock()

	result, err = svc.Reply(ctx, "user-1", session.ID, "my answer again", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Turn.Seq)
}

func TestTerminalReplyCompletesAndEnqueuesExactlyOneReport(t *testing.T) {
	svc, llmClient, q := newTestService(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, "user-1", shortJobContext, "")
	require.NoError(t, err)
	skipCountdown(t, svc, session.ID)

	llmClient.mu.Lock()
	llmClient.responses = []string{
		`{"feedback":"Good.","score":8,"nextQuestion":"And then?","done":false}`,
		`{"feedback":"That's all from me, great session.","score":9,"done":true}`,
	}
	llmClient.mu.Unlock()

	_, err = svc.Reply(ctx, "user-1", session.ID, "first answer", 1)
	require.NoError(t, err)
	result, err := svc.Reply(ctx, "user-1", session.ID, "second answer", 2)
	require.NoError(t, err)

	assert.True(t, result.Completed)
	assert.Equal(t, StateComplete, result.Snapshot.State)
	assert.False(t, result.Snapshot.InputEnabled)
	assert.Equal(t, "That's all from me, great session.", result.Snapshot.ClosingMessage)
	assert.InDelta(t, 8.5, result.Snapshot.AverageScore, 0.001)

	messages := q.sent()
	require.Len(t, messages, 1)
	assert.Equal(t, session.ID, messages[0].SessionID)

	// Result row persisted for the dashboard.
	points, err := svc.Results.ScoresSince(ctx, "user-1", time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.InDelta(t, 8.5, points[0].Score, 0.001)

	// Input stays disabled after completion.
	_, err = svc.Reply(ctx, "user-1", session.ID, "one more", 3)
	assert.ErrorIs(t, err, ErrSessionComplete)
}

func TestGetRejectsForeignSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, "user-1", shortJobContext, "")
	require.NoError(t, err)

	_, err = svc.Get(ctx, "user-2", session.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReportLifecycle(t *testing.T) {
	svc, llmClient, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, "user-1", shortJobContext, "")
	require.NoError(t, err)
	skipCountdown(t, svc, session.ID)

	_, err = svc.Report(ctx, "user-1", session.ID)
	assert.ErrorIs(t, err, ErrReportNotStarted)

	llmClient.mu.Lock()
	llmClient.responses = []string{`{"feedback":"Done, thanks.","score":7,"done":true}`}
	llmClient.mu.Unlock()
	_, err = svc.Reply(ctx, "user-1", session.ID, "answer", 1)
	require.NoError(t, err)

	_, err = svc.Report(ctx, "user-1", session.ID)
	assert.ErrorIs(t, err, ErrReportNotReady)
}
