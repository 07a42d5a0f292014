package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"perdiag/internal/geom"
)

// DrawFunc paints one chunk.
type DrawFunc func(chunk []geom.PointPair, index int) error

// ChunkError wraps a failure (or recovered panic) of one chunk's draw.
type ChunkError struct {
	Index int
	Err   error
}

func (e *ChunkError) Error() string { return fmt.Sprintf("chunk %d: %v", e.Index, e.Err) }
func (e *ChunkError) Unwrap() error { return e.Err }

// Scheduler draws chunk i after Wait*i, counted from the Draw call. Timers
// are independent, so slow chunks may overlap later ones.
type Scheduler struct {
	Wait   time.Duration
	Logger *slog.Logger
}

// Pass is one scheduled draw. It completes when every chunk has run or been
// cancelled.
type Pass struct {
	done   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
	timers []*time.Timer
	errs   []error
	drawn  atomic.Int32
	cancel atomic.Bool
}

func (s Scheduler) Draw(ctx context.Context, chunks [][]geom.PointPair, draw DrawFunc) *Pass {
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "scheduler"))

	p := &Pass{done: make(chan struct{}), errs: make([]error, len(chunks))}
	p.wg.Add(len(chunks))
	p.mu.Lock()
	for i, c := range chunks {
		t := time.AfterFunc(s.Wait*time.Duration(i), func() {
			defer p.wg.Done()
			if p.cancel.Load() || ctx.Err() != nil {
				return
			}
			if err := runChunk(draw, c, i); err != nil {
				log.Warn("chunk draw failed", slog.Int("chunk", i), slog.Any("err", err))
				p.mu.Lock()
				p.errs[i] = err
				p.mu.Unlock()
				return
			}
			p.drawn.Add(1)
		})
		p.timers = append(p.timers, t)
	}
	p.mu.Unlock()

	go func() {
		p.wg.Wait()
		close(p.done)
	}()
	if len(chunks) > 0 {
		log.Debug("pass scheduled", slog.Int("chunks", len(chunks)), slog.Duration("wait", s.Wait))
	}
	return p
}

func runChunk(draw DrawFunc, c []geom.PointPair, i int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ChunkError{Index: i, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if err := draw(c, i); err != nil {
		return &ChunkError{Index: i, Err: err}
	}
	return nil
}

// Done is closed once all chunks have settled.
func (p *Pass) Done() <-chan struct{} { return p.done }

// Wait blocks until the pass settles or ctx ends, and returns Err.
func (p *Pass) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the error of the lowest-indexed failed chunk, or nil.
func (p *Pass) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, err := range p.errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Drawn counts chunks whose draw returned without error.
func (p *Pass) Drawn() int { return int(p.drawn.Load()) }

// Cancel stops chunks that have not started. Chunks already running finish.
func (p *Pass) Cancel() {
	if p.cancel.Swap(true) {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range p.timers {
		if t.Stop() {
			p.wg.Done()
		}
	}
}
