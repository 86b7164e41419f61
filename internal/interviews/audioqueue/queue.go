// Package audioqueue plays synthesized practice audio strictly in order:
// one entry at a time, each finishing before the next starts.
package audioqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Entry is one playable segment with its phase tag.
type Entry struct {
	Phase string `json:"phase"`
	Audio []byte `json:"audio"`
}

// Synthesizer turns text into audio. speech.Client satisfies it.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// Build synthesizes the question and each answer segment in parallel and
// returns them in input order.
func Build(ctx context.Context, synth Synthesizer, voice, question string, answers []string) ([]Entry, error) {
	if synth == nil {
		return nil, errors.New("synthesizer is required")
	}
	entries := make([]Entry, 1+len(answers))
	entries[0].Phase = "question"
	for i := range answers {
		entries[i+1].Phase = fmt.Sprintf("answer_%d", i+1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		audio, err := synth.Synthesize(gctx, question, voice)
		if err != nil {
			return fmt.Errorf("synthesize question: %w", err)
		}
		entries[0].Audio = audio
		return nil
	})
	for i, answer := range answers {
		i, answer := i, answer
		g.Go(func() error {
			audio, err := synth.Synthesize(gctx, answer, voice)
			if err != nil {
				return fmt.Errorf("synthesize answer %d: %w", i+1, err)
			}
			entries[i+1].Audio = audio
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Player renders one entry. Play blocks until the entry has finished or the
// context is canceled. Pause suspends the entry currently inside Play;
// Resume lets it continue.
type Player interface {
	Play(ctx context.Context, entry Entry) error
	Pause()
	Resume()
}

// Queue consumes entries sequentially through a Player.
type Queue struct {
	player  Player
	entries []Entry

	mu      sync.Mutex
	index   int
	running bool
	paused  bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(player Player, entries []Entry) *Queue {
	return &Queue{player: player, entries: entries}
}

// Start begins playback from the current index. It returns immediately;
// playback runs until all entries finish or the context is canceled.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return errors.New("queue already playing")
	}
	runCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.running = true
	q.paused = false
	q.done = make(chan struct{})
	go q.run(runCtx, q.done)
	return nil
}

func (q *Queue) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		q.mu.Lock()
		if q.index >= len(q.entries) {
			q.running = false
			q.mu.Unlock()
			return
		}
		entry := q.entries[q.index]
		q.mu.Unlock()

		if err := q.player.Play(ctx, entry); err != nil {
			q.mu.Lock()
			q.running = false
			q.mu.Unlock()
			return
		}

		q.mu.Lock()
		q.index++
		q.mu.Unlock()
	}
}

// Pause suspends the entry currently playing. Entries not yet started are
// unaffected and will still play in order after Resume.
func (q *Queue) Pause() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.running || q.paused {
		return
	}
	q.paused = true
	q.player.Pause()
}

// Resume continues a paused entry.
func (q *Queue) Resume() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.paused {
		return
	}
	q.paused = false
	q.player.Resume()
}

// Replay stops any in-flight playback and restarts the whole queue from the
// first entry.
func (q *Queue) Replay(ctx context.Context) error {
	q.mu.Lock()
	cancel := q.cancel
	done := q.done
	q.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	q.mu.Lock()
	q.index = 0
	q.running = false
	q.paused = false
	q.mu.Unlock()

	return q.Start(ctx)
}

// Index reports the position of the entry currently playing or up next.
func (q *Queue) Index() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.index
}

// Done exposes completion of the current playback run.
func (q *Queue) Done() <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.done
}
