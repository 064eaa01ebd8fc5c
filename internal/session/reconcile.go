package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/odysseus0/rssant/internal/model"
)

type ReconcileState string

const (
	StateSubmitted ReconcileState = "submitted"
	StatePolling   ReconcileState = "polling"
	StateReady     ReconcileState = "ready"
	StateError     ReconcileState = "error"
	StateExhausted ReconcileState = "exhausted"
	StateCanceled  ReconcileState = "canceled"
)

func (s ReconcileState) Terminal() bool {
	switch s {
	case StateReady, StateError, StateExhausted, StateCanceled:
		return true
	}
	return false
}

// Reconciliation polls one newly created feed until the server reports a
// terminal status or the try budget runs out. A failed poll still uses up a
// try; a poll cut short by cancellation does not.
type Reconciliation struct {
	id     int64
	done   chan struct{}
	cancel context.CancelFunc

	mu      sync.Mutex
	state   ReconcileState
	ticks   int
	feed    model.Feed
	lastErr error
}

func (r *Reconciliation) FeedID() int64 { return r.id }

// Done is closed once the loop has stopped.
func (r *Reconciliation) Done() <-chan struct{} { return r.done }

// Cancel stops the loop; a loop that already finished keeps its state.
func (r *Reconciliation) Cancel() { r.cancel() }

func (r *Reconciliation) State() ReconcileState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Ticks is the number of polls performed so far, failed ones included.
func (r *Reconciliation) Ticks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ticks
}

// Feed is the most recent representation seen by the loop.
func (r *Reconciliation) Feed() model.Feed {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.feed
}

func (r *Reconciliation) LastErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Wait blocks until the loop stops or ctx is done, and returns the final state.
func (r *Reconciliation) Wait(ctx context.Context) (ReconcileState, error) {
	select {
	case <-r.done:
		return r.State(), nil
	case <-ctx.Done():
		return r.State(), ctx.Err()
	}
}

func (r *Reconciliation) set(state ReconcileState) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
}

func (r *Reconciliation) record(feed model.Feed, err error) (int, model.FeedStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks++
	r.lastErr = err
	if err == nil {
		r.feed = feed
	}
	return r.ticks, r.feed.Status
}

// reconcile starts polling feed, or returns the loop already running for it.
func (s *Session) reconcile(feed model.Feed) *Reconciliation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if running, ok := s.loops[feed.ID]; ok {
		return running
	}
	ctx, cancel := context.WithCancel(s.base)
	r := &Reconciliation{
		id:     feed.ID,
		done:   make(chan struct{}),
		cancel: cancel,
		state:  StateSubmitted,
		feed:   feed,
	}
	s.loops[feed.ID] = r
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.poll(ctx, r)
		s.mu.Lock()
		if s.loops[r.id] == r {
			delete(s.loops, r.id)
		}
		s.mu.Unlock()
		close(r.done)
	}()
	return r
}

func (s *Session) poll(ctx context.Context, r *Reconciliation) {
	log := s.log.With(zap.Int64("feed_id", r.id))
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	r.set(StatePolling)
	canceled := func() {
		r.set(StateCanceled)
		log.Info("reconciliation canceled", zap.Int("ticks", r.Ticks()))
	}
	for left := s.pollTries; left > 0; {
		if ctx.Err() != nil {
			canceled()
			return
		}
		select {
		case <-ctx.Done():
			canceled()
			return
		case <-ticker.C:
		}

		feed, err := s.GetFeed(ctx, r.id, false)
		if err != nil && ctx.Err() != nil {
			canceled()
			return
		}
		left--
		tick, status := r.record(feed, err)
		if err != nil {
			log.Debug("reconciliation poll failed", zap.Int("tick", tick), zap.Int("left", left), zap.Error(err))
			continue
		}
		log.Debug("reconciliation poll", zap.Int("tick", tick), zap.Int("left", left), zap.String("status", string(status)))

		switch status {
		case model.FeedReady:
			r.set(StateReady)
			log.Info("feed ready", zap.Int("ticks", tick))
			return
		case model.FeedError:
			r.set(StateError)
			log.Info("feed failed on server", zap.Int("ticks", tick))
			return
		}
	}
	r.set(StateExhausted)
	log.Info("reconciliation budget exhausted", zap.Int("ticks", r.Ticks()), zap.String("status", string(r.Feed().Status)))
}
