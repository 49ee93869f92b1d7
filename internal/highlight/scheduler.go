package highlight

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/xonecas/quill/internal/language"
	"github.com/xonecas/quill/internal/query"
	"github.com/xonecas/quill/internal/treesitter"
)

// Job computes captures. It must return promptly once ctx is cancelled.
type Job func(ctx context.Context) ([]query.Capture, error)

// Result is delivered once per submitted job.
type Result struct {
	Generation uint64
	Captures   []query.Capture
	// Completed is false when the job was superseded, cancelled or failed;
	// Captures is then nil and means "no result", not "no captures".
	Completed bool
	Err       error
}

// Scheduler runs one highlight job at a time in the background. Every
// Submit starts a new generation and cancels the previous one; a result is
// published only while its generation is the latest, so published results
// are always in increasing generation order.
type Scheduler struct {
	mu        sync.Mutex
	gen       uint64
	published uint64
	cancel    context.CancelFunc

	// deliver serializes decide-and-call so callbacks observe generations
	// in order.
	deliver sync.Mutex
	wg      sync.WaitGroup
	log     zerolog.Logger
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger replaces the global zerolog logger.
func WithSchedulerLogger(l zerolog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.log = l }
}

// NewScheduler returns an idle scheduler.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{log: log.Logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit starts job as the newest generation and returns that generation.
// done is called exactly once from the job's goroutine; it may call Submit
// but must not call Wait.
func (s *Scheduler) Submit(job Job, done func(Result)) uint64 {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		caps, err := job(ctx)
		s.finish(ctx, gen, caps, err, done)
	}()
	return gen
}

func (s *Scheduler) finish(ctx context.Context, gen uint64, caps []query.Capture, err error, done func(Result)) {
	s.deliver.Lock()
	defer s.deliver.Unlock()

	s.mu.Lock()
	latest := gen == s.gen && gen > s.published && ctx.Err() == nil
	if latest && err == nil {
		s.published = gen
	}
	s.mu.Unlock()

	res := Result{Generation: gen}
	switch {
	case !latest:
		s.log.Debug().Uint64("generation", gen).Msg("highlight job superseded")
	case err != nil:
		res.Err = err
		s.log.Debug().Err(err).Uint64("generation", gen).Msg("highlight job failed")
	default:
		res.Captures, res.Completed = caps, true
	}
	if done != nil {
		done(res)
	}
}

// Cancel supersedes the in-flight job without starting a new one.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
}

// Wait blocks until every submitted job has delivered its result.
func (s *Scheduler) Wait() { s.wg.Wait() }

// Generation returns the newest generation handed out.
func (s *Scheduler) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// CapturesJob reads highlight captures for span from snap. The snapshot is
// released when the job ends.
func CapturesJob(snap *treesitter.Snapshot, span query.Span) Job {
	return func(ctx context.Context) ([]query.Capture, error) {
		defer snap.Release()
		return snap.Captures(ctx, language.Highlights, span)
	}
}

// LexerJob tokenizes a copy-on-write source with the named chroma lexer.
func LexerJob(lexerName string, src []byte) Job {
	return func(ctx context.Context) ([]query.Capture, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return LexerCaptures(lexerName, src)
	}
}
