package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/lrcx/internal/models"
)

// recordingProcessor counts barrier firings and delegates outcomes to step.
type recordingProcessor struct {
	initial []Request
	step    func(info Info, replies []Reply) Outcome

	mu    sync.Mutex
	calls []Info
	seen  [][]Reply
}

func (p *recordingProcessor) Name() string { return "recording" }

func (p *recordingProcessor) Initial(models.Song) []Request { return p.initial }

func (p *recordingProcessor) Process(ctx context.Context, info Info, replies []Reply) Outcome {
	p.mu.Lock()
	p.calls = append(p.calls, info)
	p.seen = append(p.seen, append([]Reply(nil), replies...))
	p.mu.Unlock()
	if p.step == nil {
		return Complete(len(replies))
	}
	return p.step(info, replies)
}

func (p *recordingProcessor) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// silentFetcher records requests and never replies; tests submit by hand.
type silentFetcher struct {
	mu   sync.Mutex
	reqs []Request
}

func (f *silentFetcher) Fetch(ctx context.Context, sub Submitter, id ID, round int, req Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
}

// echoFetcher replies immediately with the request URL as the body.
type echoFetcher struct{}

func (echoFetcher) Fetch(ctx context.Context, sub Submitter, id ID, round int, req Request) {
	sub.Submit(id, Reply{Round: round, Body: []byte(req.URL), Tag: req.Tag})
}

var testSong = models.Song{Artist: "Test", Title: "Song"}

func newManager(t *testing.T, f Fetcher, p Processor, events chan<- Event) *Manager {
	t.Helper()
	m, err := NewManager(ManagerOpts{Fetcher: f, Processor: p, Events: events})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m
}

func openRound(t *testing.T, m *Manager, id ID, n int) {
	t.Helper()
	if err := m.Open(context.Background(), id, testSong); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := m.SetExpected(id, 1, n); err != nil {
		t.Fatalf("SetExpected() error = %v", err)
	}
}

func permutations(n int) [][]int {
	if n == 0 {
		return [][]int{{}}
	}
	var out [][]int
	for _, p := range permutations(n - 1) {
		for i := 0; i <= len(p); i++ {
			q := append(append(append([]int{}, p[:i]...), n-1), p[i:]...)
			out = append(out, q)
		}
	}
	return out
}

func TestNewManager(t *testing.T) {
	if _, err := NewManager(ManagerOpts{Processor: &recordingProcessor{}}); err == nil {
		t.Error("expected error without fetcher")
	}
	if _, err := NewManager(ManagerOpts{Fetcher: echoFetcher{}}); err == nil {
		t.Error("expected error without processor")
	}
}

func TestBarrierPermutationInvariance(t *testing.T) {
	for i, order := range permutations(4) {
		t.Run(fmt.Sprintf("order %d %v", i, order), func(t *testing.T) {
			p := &recordingProcessor{}
			m := newManager(t, &silentFetcher{}, p, nil)
			id := ID(fmt.Sprintf("perm-%d", i))
			openRound(t, m, id, len(order))

			for j, idx := range order {
				if p.count() != 0 {
					t.Fatalf("barrier fired after %d of %d replies", j, len(order))
				}
				if !m.Submit(id, Reply{Round: 1, Body: []byte{byte(idx)}, Tag: idx}) {
					t.Fatalf("reply %d dropped", idx)
				}
			}

			if p.count() != 1 {
				t.Fatalf("processor ran %d times, want 1", p.count())
			}
			if got := len(p.seen[0]); got != len(order) {
				t.Errorf("processor saw %d replies, want %d", got, len(order))
			}
			res, err := m.Wait(context.Background(), id)
			if err != nil || res.Status != models.ResolutionCompleted || res.Accepted != len(order) {
				t.Errorf("Wait() = %+v, %v", res, err)
			}
		})
	}
}

func TestConcurrentSubmitFiresOnce(t *testing.T) {
	const n = 64
	p := &recordingProcessor{}
	m := newManager(t, &silentFetcher{}, p, nil)
	openRound(t, m, "concurrent", n)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			m.Submit("concurrent", Reply{Round: 1, Tag: i})
		}()
	}
	close(start)
	wg.Wait()

	if p.count() != 1 {
		t.Fatalf("processor ran %d times, want 1", p.count())
	}
	if len(p.seen[0]) != n {
		t.Errorf("processor saw %d replies, want %d", len(p.seen[0]), n)
	}
}

func TestSubmitDrops(t *testing.T) {
	t.Run("unknown session", func(t *testing.T) {
		m := newManager(t, &silentFetcher{}, &recordingProcessor{}, nil)
		if m.Submit("missing", Reply{Round: 1}) {
			t.Error("reply for unknown session should be dropped")
		}
	})

	t.Run("wrong round", func(t *testing.T) {
		p := &recordingProcessor{}
		m := newManager(t, &silentFetcher{}, p, nil)
		openRound(t, m, "s", 1)
		if m.Submit("s", Reply{Round: 2}) {
			t.Error("reply for a future round should be dropped")
		}
		if p.count() != 0 {
			t.Error("dropped reply must not fire the barrier")
		}
	})

	t.Run("after completion", func(t *testing.T) {
		p := &recordingProcessor{}
		m := newManager(t, &silentFetcher{}, p, nil)
		openRound(t, m, "s", 2)
		m.Submit("s", Reply{Round: 1})
		if err := m.Complete("s"); err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
		if m.Submit("s", Reply{Round: 1}) {
			t.Error("late reply should be dropped")
		}
		if p.count() != 0 {
			t.Errorf("processor ran %d times after terminal state", p.count())
		}
		if err := m.Complete("s"); err != nil {
			t.Errorf("second Complete() error = %v", err)
		}
	})

	t.Run("processed round", func(t *testing.T) {
		p := &recordingProcessor{step: func(info Info, _ []Reply) Outcome {
			if info.Round == 1 {
				return Advance([]Request{{URL: "a"}, {URL: "b"}})
			}
			return Complete(0)
		}}
		m := newManager(t, &silentFetcher{}, p, nil)
		openRound(t, m, "s", 1)
		m.Submit("s", Reply{Round: 1})
		if m.Submit("s", Reply{Round: 1}) {
			t.Error("duplicate reply for a processed round should be dropped")
		}
		if p.count() != 1 {
			t.Errorf("processor ran %d times, want 1", p.count())
		}
	})
}

func TestSetExpected(t *testing.T) {
	t.Run("only once per round", func(t *testing.T) {
		m := newManager(t, &silentFetcher{}, &recordingProcessor{}, nil)
		openRound(t, m, "s", 2)
		if err := m.SetExpected("s", 1, 3); !errors.Is(err, ErrExpectedAlreadySet) {
			t.Errorf("error = %v, want ErrExpectedAlreadySet", err)
		}
	})

	t.Run("argument checks", func(t *testing.T) {
		m := newManager(t, &silentFetcher{}, &recordingProcessor{}, nil)
		if err := m.SetExpected("missing", 1, 1); !errors.Is(err, ErrUnknownSession) {
			t.Errorf("error = %v, want ErrUnknownSession", err)
		}
		if err := m.Open(context.Background(), "s", testSong); err != nil {
			t.Fatal(err)
		}
		if err := m.Open(context.Background(), "s", testSong); !errors.Is(err, ErrSessionExists) {
			t.Errorf("error = %v, want ErrSessionExists", err)
		}
		if err := m.SetExpected("s", 2, 1); !errors.Is(err, ErrRoundMismatch) {
			t.Errorf("error = %v, want ErrRoundMismatch", err)
		}
		if err := m.SetExpected("s", 1, 0); !errors.Is(err, ErrNoRequests) {
			t.Errorf("error = %v, want ErrNoRequests", err)
		}
	})

	t.Run("replies before declaration", func(t *testing.T) {
		p := &recordingProcessor{}
		m := newManager(t, &silentFetcher{}, p, nil)
		if err := m.Open(context.Background(), "s", testSong); err != nil {
			t.Fatal(err)
		}
		m.Submit("s", Reply{Round: 1})
		m.Submit("s", Reply{Round: 1})
		if p.count() != 0 {
			t.Fatal("barrier fired before the expected count was set")
		}
		if err := m.SetExpected("s", 1, 2); err != nil {
			t.Fatalf("SetExpected() error = %v", err)
		}
		if p.count() != 1 {
			t.Errorf("processor ran %d times, want 1", p.count())
		}
	})
}

func TestMultiRound(t *testing.T) {
	events := make(chan Event, 64)
	p := &recordingProcessor{
		initial: []Request{{URL: "r1-a"}, {URL: "r1-b"}},
		step: func(info Info, replies []Reply) Outcome {
			switch info.Round {
			case 1:
				return Advance([]Request{{URL: "r2-a", Tag: "a"}, {URL: "r2-b", Tag: "b"}, {URL: "r2-c", Tag: "c"}})
			default:
				return Complete(len(replies) - 1)
			}
		},
	}
	m := newManager(t, echoFetcher{}, p, events)

	res, err := m.Resolve(context.Background(), testSong)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Rounds != 2 || res.Accepted != 2 || res.Status != models.ResolutionCompleted {
		t.Errorf("result = %+v", res)
	}
	if len(p.seen) != 2 || len(p.seen[0]) != 2 || len(p.seen[1]) != 3 {
		t.Fatalf("unexpected batches: %v", p.seen)
	}
	for _, r := range p.seen[1] {
		if string(r.Body) != "r2-"+r.Tag.(string) {
			t.Errorf("tag %v not carried with body %q", r.Tag, r.Body)
		}
	}
	if m.Active() != 0 {
		t.Errorf("Active() = %d after completion", m.Active())
	}

	close(events)
	kinds := map[EventKind]int{}
	for ev := range events {
		kinds[ev.Kind]++
	}
	if kinds[SessionOpened] != 1 || kinds[RoundOpened] != 1 || kinds[RoundProcessed] != 2 || kinds[SessionCompleted] != 1 {
		t.Errorf("events = %v", kinds)
	}
}

func TestFailures(t *testing.T) {
	boom := errors.New("boom")

	tt := []struct {
		name    string
		initial []Request
		step    func(Info, []Reply) Outcome
		wantErr error
	}{
		{name: "no initial requests", wantErr: ErrNoRequests},
		{
			name:    "processor failure",
			initial: []Request{{URL: "x"}},
			step:    func(Info, []Reply) Outcome { return Fail(boom) },
			wantErr: boom,
		},
		{
			name:    "advance without requests",
			initial: []Request{{URL: "x"}},
			step:    func(Info, []Reply) Outcome { return Advance(nil) },
			wantErr: ErrNoRequests,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			m := newManager(t, echoFetcher{}, &recordingProcessor{initial: tc.initial, step: tc.step}, nil)
			res, err := m.Resolve(context.Background(), testSong)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Resolve() error = %v, want %v", err, tc.wantErr)
			}
			if res.Status != models.ResolutionFailed {
				t.Errorf("status = %s, want failed", res.Status)
			}
		})
	}

	t.Run("invalid song", func(t *testing.T) {
		m := newManager(t, echoFetcher{}, &recordingProcessor{}, nil)
		if _, err := m.Start(context.Background(), models.Song{}); err == nil {
			t.Error("expected error for empty song")
		}
	})
}

func TestAbort(t *testing.T) {
	t.Run("explicit", func(t *testing.T) {
		p := &recordingProcessor{initial: []Request{{URL: "x"}}}
		m := newManager(t, &silentFetcher{}, p, nil)

		id, err := m.Start(context.Background(), testSong)
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if err := m.Abort(id); err != nil {
			t.Fatalf("Abort() error = %v", err)
		}
		if m.Submit(id, Reply{Round: 1}) {
			t.Error("reply after abort should be dropped")
		}

		res, err := m.Wait(context.Background(), id)
		if !errors.Is(err, ErrAborted) || res.Status != models.ResolutionAborted {
			t.Errorf("Wait() = %+v, %v", res, err)
		}
		if p.count() != 0 {
			t.Error("processor ran for an aborted session")
		}
	})

	t.Run("context cancelled", func(t *testing.T) {
		p := &recordingProcessor{initial: []Request{{URL: "x"}}}
		m := newManager(t, &silentFetcher{}, p, nil)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		res, err := m.Resolve(ctx, testSong)
		if !errors.Is(err, ErrAborted) {
			t.Fatalf("Resolve() error = %v, want ErrAborted", err)
		}
		if res.Status != models.ResolutionAborted {
			t.Errorf("status = %s, want aborted", res.Status)
		}
		if m.Submit(res.ID, Reply{Round: 1}) {
			t.Error("late reply should be dropped")
		}
		if m.Active() != 0 {
			t.Errorf("Active() = %d, want 0", m.Active())
		}
	})
}

func TestWait(t *testing.T) {
	m := newManager(t, &silentFetcher{}, &recordingProcessor{initial: []Request{{URL: "x"}}}, nil)

	if _, err := m.Wait(context.Background(), "missing"); !errors.Is(err, ErrUnknownSession) {
		t.Errorf("error = %v, want ErrUnknownSession", err)
	}

	id, err := m.Start(context.Background(), testSong)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := m.Wait(ctx, id); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}

	go m.Submit(id, Reply{Round: 1})
	res, err := m.Wait(context.Background(), id)
	if err != nil || res.Status != models.ResolutionCompleted {
		t.Errorf("Wait() = %+v, %v", res, err)
	}

	again, err := m.Wait(context.Background(), id)
	if err != nil || again.ID != id {
		t.Errorf("Wait() on finished session = %+v, %v", again, err)
	}
}

func TestEventKindString(t *testing.T) {
	if SessionFailed.String() != "session_failed" || EventKind(99).String() != "" {
		t.Error("unexpected event kind names")
	}
}
