package audioqueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type stepPlayer struct {
	mu        sync.Mutex
	order     []string
	active    int
	maxActive int
	pauses    int
	resumes   int

	started chan string
	proceed chan struct{}
}

func newStepPlayer() *stepPlayer {
	return &stepPlayer{
		started: make(chan string, 16),
		proceed: make(chan struct{}),
	}
}

func (p *stepPlayer) Play(ctx context.Context, entry Entry) error {
	p.mu.Lock()
	p.active++
	if p.active > p.maxActive {
		p.maxActive = p.active
	}
	p.order = append(p.order, entry.Phase)
	p.mu.Unlock()
	p.started <- entry.Phase

	defer func() {
		p.mu.Lock()
		p.active--
		p.mu.Unlock()
	}()

	select {
	case <-p.proceed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *stepPlayer) Pause() {
	p.mu.Lock()
	p.pauses++
	p.mu.Unlock()
}

func (p *stepPlayer) Resume() {
	p.mu.Lock()
	p.resumes++
	p.mu.Unlock()
}

func (p *stepPlayer) snapshot() ([]string, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	order := append([]string(nil), p.order...)
	return order, p.maxActive
}

func waitDone(t *testing.T, q *Queue) {
	t.Helper()
	select {
	case <-q.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("queue did not finish in time")
	}
}

func testEntries() []Entry {
	return []Entry{
		{Phase: "question"},
		{Phase: "answer_1"},
		{Phase: "answer_2"},
		{Phase: "answer_3"},
	}
}

func TestQueuePlaysInOrderOneAtATime(t *testing.T) {
	player := newStepPlayer()
	q := New(player, testEntries())

	if err := q.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for range testEntries() {
		<-player.started
		player.proceed <- struct{}{}
	}
	waitDone(t, q)

	order, maxActive := player.snapshot()
	want := []string{"question", "answer_1", "answer_2", "answer_3"}
	if len(order) != len(want) {
		t.Fatalf("played %d entries, want %d", len(order), len(want))
	}
	for i, phase := range want {
		if order[i] != phase {
			t.Fatalf("order[%d] = %q, want %q", i, order[i], phase)
		}
	}
	if maxActive != 1 {
		t.Fatalf("max concurrent playback = %d, want 1", maxActive)
	}
}

func TestQueuePauseSuspendsOnlyCurrentEntry(t *testing.T) {
	player := newStepPlayer()
	q := New(player, testEntries())

	if err := q.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-player.started

	q.Pause()
	q.Pause() // second call is a no-op while already paused
	q.Resume()

	player.proceed <- struct{}{}
	for i := 1; i < len(testEntries()); i++ {
		<-player.started
		player.proceed <- struct{}{}
	}
	waitDone(t, q)

	player.mu.Lock()
	pauses, resumes := player.pauses, player.resumes
	player.mu.Unlock()
	if pauses != 1 {
		t.Fatalf("pauses = %d, want 1", pauses)
	}
	if resumes != 1 {
		t.Fatalf("resumes = %d, want 1", resumes)
	}
}

func TestQueueReplayRestartsFromFirstEntry(t *testing.T) {
	player := newStepPlayer()
	q := New(player, testEntries())

	if err := q.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Finish the first two entries, leave the third in flight.
	for i := 0; i < 2; i++ {
		<-player.started
		player.proceed <- struct{}{}
	}
	<-player.started

	if err := q.Replay(context.Background()); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	for range testEntries() {
		<-player.started
		player.proceed <- struct{}{}
	}
	waitDone(t, q)

	order, _ := player.snapshot()
	// Three plays before replay (the third canceled mid-flight), then the
	// full queue again from index 0.
	want := []string{"question", "answer_1", "answer_2", "question", "answer_1", "answer_2", "answer_3"}
	if len(order) != len(want) {
		t.Fatalf("played %d entries, want %d: %v", len(order), len(want), order)
	}
	for i, phase := range want {
		if order[i] != phase {
			t.Fatalf("order[%d] = %q, want %q", i, order[i], phase)
		}
	}
}

func TestQueueStartTwiceFails(t *testing.T) {
	player := newStepPlayer()
	q := New(player, testEntries())

	if err := q.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := q.Start(context.Background()); err == nil {
		t.Fatal("second Start should fail while playing")
	}
	<-player.started
	for i := 0; i < len(testEntries()); i++ {
		player.proceed <- struct{}{}
		if i < len(testEntries())-1 {
			<-player.started
		}
	}
	waitDone(t, q)
}

type fakeSynth struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (s *fakeSynth) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.fail {
		return nil, errors.New("synth unavailable")
	}
	return []byte(text), nil
}

func TestBuildSynthesizesAllSegmentsInOrder(t *testing.T) {
	synth := &fakeSynth{}
	entries, err := Build(context.Background(), synth, "nova", "the question", []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("entries = %d, want 4", len(entries))
	}
	wantPhases := []string{"question", "answer_1", "answer_2", "answer_3"}
	wantAudio := []string{"the question", "a", "b", "c"}
	for i := range entries {
		if entries[i].Phase != wantPhases[i] {
			t.Fatalf("entries[%d].Phase = %q, want %q", i, entries[i].Phase, wantPhases[i])
		}
		if string(entries[i].Audio) != wantAudio[i] {
			t.Fatalf("entries[%d].Audio = %q, want %q", i, entries[i].Audio, wantAudio[i])
		}
	}
	if synth.calls != 4 {
		t.Fatalf("synthesize calls = %d, want 4", synth.calls)
	}
}

func TestBuildPropagatesSynthesisFailure(t *testing.T) {
	synth := &fakeSynth{fail: true}
	if _, err := Build(context.Background(), synth, "nova", "q", []string{"a"}); err == nil {
		t.Fatal("Build should fail when synthesis fails")
	}
}
