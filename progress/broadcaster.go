// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package progress broadcasts the state of a multi-stage ingestion run to
// any number of subscribers. Subscribers receive the current state
// immediately on subscription, then every subsequent change. After a run
// reaches a terminal stage the broadcaster returns to idle on its own, so
// a subscriber connecting later sees a clean slate.
package progress

import (
	"context"
	"sync"
	"time"
)

// Stage identifies where in the ingestion pipeline a run currently is.
type Stage string

const (
	StageIdle               Stage = "idle"
	StageUploading          Stage = "uploading"
	StageTranscribing       Stage = "transcribing"
	StageProcessingSegments Stage = "processing_segments"
	StageCompleted          Stage = "completed"
	StageError              Stage = "error"
)

// terminal reports whether a stage ends the run.
func (s Stage) terminal() bool {
	return s == StageCompleted || s == StageError
}

// State is a snapshot of the pipeline. Progress is a percentage in
// [0, 100]; Current and Total carry item counts for stages that have them.
type State struct {
	Stage    Stage  `json:"stage"`
	Progress int    `json:"progress"`
	Message  string `json:"message,omitempty"`
	Current  int    `json:"current,omitempty"`
	Total    int    `json:"total,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Patch is a partial state update. Nil fields keep their current value.
// When Current or Total change and Total is positive, Progress is derived
// from the counts; an explicit Progress field wins over the derivation.
type Patch struct {
	Stage    *Stage
	Progress *int
	Message  *string
	Current  *int
	Total    *int
	Error    *string
}

// Ptr returns a pointer to v, for building Patch values inline.
func Ptr[T any](v T) *T {
	return &v
}

const defaultResetDelay = time.Second

// subscription queues states for one subscriber. Updates append under the
// subscription's own lock and a goroutine moves them to the out channel,
// so a slow reader never blocks the broadcaster and never misses a state
// while attached. In particular a terminal state always reaches a reader
// that keeps draining, even if the reset to idle has already happened.
type subscription struct {
	mu      sync.Mutex
	pending []State
	wake    chan struct{}
	done    chan struct{}
	out     chan State
}

func newSubscription(initial State) *subscription {
	return &subscription{
		pending: []State{initial},
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		out:     make(chan State),
	}
}

func (s *subscription) push(state State) {
	s.mu.Lock()
	s.pending = append(s.pending, state)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// deliver drains the pending queue to the out channel until the
// subscription ends. Unsubscribing releases a blocked send.
func (s *subscription) deliver() {
	defer close(s.out)
	for {
		s.mu.Lock()
		batch := s.pending
		s.pending = nil
		s.mu.Unlock()

		for _, state := range batch {
			select {
			case s.out <- state:
			case <-s.done:
				return
			}
		}

		select {
		case <-s.wake:
		case <-s.done:
			return
		}
	}
}

// Broadcaster holds the current state and fans updates out to
// subscribers. All methods are thread-safe.
type Broadcaster struct {
	mu          sync.Mutex
	state       State
	subscribers map[int]*subscription
	nextID      int
	resetDelay  time.Duration
	resetTimer  *time.Timer
}

// NewBroadcaster creates a broadcaster in the idle state.
func NewBroadcaster() *Broadcaster {
	return NewBroadcasterWithResetDelay(defaultResetDelay)
}

// NewBroadcasterWithResetDelay creates a broadcaster whose terminal-stage
// reset fires after the given delay.
func NewBroadcasterWithResetDelay(resetDelay time.Duration) *Broadcaster {
	return &Broadcaster{
		state:       State{Stage: StageIdle},
		subscribers: make(map[int]*subscription),
		resetDelay:  resetDelay,
	}
}

// State returns the current snapshot.
func (b *Broadcaster) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Update merges the patch into the current state and broadcasts the
// result. Returns the state after the merge.
func (b *Broadcaster) Update(patch Patch) State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.resetTimer != nil {
		b.resetTimer.Stop()
		b.resetTimer = nil
	}

	if patch.Stage != nil {
		b.state.Stage = *patch.Stage
	}
	if patch.Message != nil {
		b.state.Message = *patch.Message
	}
	if patch.Current != nil {
		b.state.Current = *patch.Current
	}
	if patch.Total != nil {
		b.state.Total = *patch.Total
	}
	if patch.Error != nil {
		b.state.Error = *patch.Error
	}

	if patch.Progress != nil {
		b.state.Progress = *patch.Progress
	} else if (patch.Current != nil || patch.Total != nil) && b.state.Total > 0 {
		b.state.Progress = b.state.Current * 100 / b.state.Total
	}

	if b.state.Progress < 0 {
		b.state.Progress = 0
	}
	if b.state.Progress > 100 {
		b.state.Progress = 100
	}

	if b.state.Stage.terminal() {
		b.scheduleReset()
	}

	b.broadcast()
	return b.state
}

// Begin moves to a new stage with a fresh message and zeroed counters.
func (b *Broadcaster) Begin(stage Stage, message string) State {
	return b.Update(Patch{
		Stage:    &stage,
		Message:  &message,
		Progress: Ptr(0),
		Current:  Ptr(0),
		Total:    Ptr(0),
		Error:    Ptr(""),
	})
}

// Step reports item counts within the current stage.
func (b *Broadcaster) Step(current, total int, message string) State {
	return b.Update(Patch{
		Current: &current,
		Total:   &total,
		Message: &message,
	})
}

// Complete marks the run finished.
func (b *Broadcaster) Complete(message string) State {
	return b.Update(Patch{
		Stage:    Ptr(StageCompleted),
		Message:  &message,
		Progress: Ptr(100),
	})
}

// Fail marks the run failed with the error's message.
func (b *Broadcaster) Fail(err error) State {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return b.Update(Patch{
		Stage: Ptr(StageError),
		Error: &message,
	})
}

// Subscribe registers a subscriber. The returned channel immediately
// carries the current state, then every update, in order and without
// gaps, for as long as the subscriber stays attached. The returned
// function unsubscribes and closes the channel; states still queued at
// that point are discarded.
func (b *Broadcaster) Subscribe() (<-chan State, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	sub := newSubscription(b.state)
	b.subscribers[id] = sub
	go sub.deliver()

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(existing.done)
		}
	}
	return sub.out, unsubscribe
}

// Watch subscribes for the lifetime of the context.
func (b *Broadcaster) Watch(ctx context.Context) <-chan State {
	ch, unsubscribe := b.Subscribe()
	go func() {
		<-ctx.Done()
		unsubscribe()
	}()
	return ch
}

// scheduleReset arms the return-to-idle timer. Must be called with lock
// held.
func (b *Broadcaster) scheduleReset() {
	b.resetTimer = time.AfterFunc(b.resetDelay, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.resetTimer = nil
		b.state = State{Stage: StageIdle}
		b.broadcast()
	})
}

// broadcast queues the state for every subscriber. Must be called with
// lock held. Queueing never blocks; delivery happens on the
// subscriptions' own goroutines.
func (b *Broadcaster) broadcast() {
	for _, sub := range b.subscribers {
		sub.push(b.state)
	}
}
