package progress

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialState(t *testing.T) {
	b := NewBroadcaster()
	state := b.State()
	assert.Equal(t, StageIdle, state.Stage)
	assert.Equal(t, 0, state.Progress)
}

func TestUpdateMergesPatch(t *testing.T) {
	b := NewBroadcaster()

	b.Update(Patch{
		Stage:   Ptr(StageTranscribing),
		Message: Ptr("transcribing audio"),
	})

	// Fields not in the patch survive
	state := b.Update(Patch{Progress: Ptr(40)})
	assert.Equal(t, StageTranscribing, state.Stage)
	assert.Equal(t, "transcribing audio", state.Message)
	assert.Equal(t, 40, state.Progress)
}

func TestProgressDerivedFromCounts(t *testing.T) {
	b := NewBroadcaster()
	b.Begin(StageProcessingSegments, "embedding")

	state := b.Step(25, 100, "embedding")
	assert.Equal(t, 25, state.Progress)

	state = b.Step(100, 100, "embedding")
	assert.Equal(t, 100, state.Progress)
}

func TestProgressClamped(t *testing.T) {
	b := NewBroadcaster()

	state := b.Update(Patch{Progress: Ptr(150)})
	assert.Equal(t, 100, state.Progress)

	state = b.Update(Patch{Progress: Ptr(-10)})
	assert.Equal(t, 0, state.Progress)
}

func TestExplicitProgressWinsOverCounts(t *testing.T) {
	b := NewBroadcaster()

	state := b.Update(Patch{
		Current:  Ptr(1),
		Total:    Ptr(10),
		Progress: Ptr(99),
	})
	assert.Equal(t, 99, state.Progress)
}

func TestSubscriberGetsSnapshotImmediately(t *testing.T) {
	b := NewBroadcaster()
	b.Begin(StageUploading, "uploading audio")

	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	select {
	case state := <-ch:
		assert.Equal(t, StageUploading, state.Stage)
	case <-time.After(time.Second):
		t.Fatal("no snapshot received")
	}
}

func TestSubscriberReceivesUpdates(t *testing.T) {
	b := NewBroadcaster()
	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	<-ch // snapshot

	b.Begin(StageTranscribing, "transcribing")

	select {
	case state := <-ch:
		assert.Equal(t, StageTranscribing, state.Stage)
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}
}

func TestSubscriberSeesEveryUpdateInOrder(t *testing.T) {
	b := NewBroadcaster()
	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	receive := func() State {
		select {
		case state := <-ch:
			return state
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for update")
			return State{}
		}
	}

	receive() // snapshot

	const total = 40
	b.Begin(StageProcessingSegments, "embedding")
	for i := 1; i <= total; i++ {
		b.Step(i, total, "embedding")
	}

	state := receive()
	assert.Equal(t, StageProcessingSegments, state.Stage)
	for i := 1; i <= total; i++ {
		state = receive()
		assert.Equal(t, i, state.Current)
	}
}

func TestSlowSubscriberStillSeesTerminalState(t *testing.T) {
	b := NewBroadcasterWithResetDelay(10 * time.Millisecond)

	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()
	<-ch // snapshot

	// A whole run completes before the subscriber reads anything else
	b.Begin(StageProcessingSegments, "embedding")
	for i := 1; i <= 64; i++ {
		b.Step(i, 64, "embedding")
	}
	b.Complete("done")

	// Wait out the reset so the broadcaster itself is back to idle
	require.Eventually(t, func() bool {
		return b.State().Stage == StageIdle
	}, time.Second, 5*time.Millisecond)

	deadline := time.After(time.Second)
	for {
		select {
		case state := <-ch:
			if state.Stage == StageCompleted {
				assert.Equal(t, 100, state.Progress)
				return
			}
			require.NotEqual(t, StageIdle, state.Stage,
				"reset overtook the completed state")
		case <-deadline:
			t.Fatal("completed state never delivered")
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster()
	ch, unsubscribe := b.Subscribe()

	<-ch // snapshot
	unsubscribe()

	_, open := <-ch
	assert.False(t, open)

	// Updating after unsubscribe must not panic
	b.Begin(StageUploading, "uploading")
}

func TestTerminalStageResetsToIdle(t *testing.T) {
	b := NewBroadcasterWithResetDelay(10 * time.Millisecond)

	state := b.Complete("done")
	assert.Equal(t, StageCompleted, state.Stage)
	assert.Equal(t, 100, state.Progress)

	require.Eventually(t, func() bool {
		return b.State().Stage == StageIdle
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, b.State().Progress)
}

func TestErrorStageCarriesMessageThenResets(t *testing.T) {
	b := NewBroadcasterWithResetDelay(10 * time.Millisecond)

	state := b.Fail(errors.New("transcription failed"))
	assert.Equal(t, StageError, state.Stage)
	assert.Equal(t, "transcription failed", state.Error)

	require.Eventually(t, func() bool {
		return b.State().Stage == StageIdle
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, b.State().Error)
}

func TestUpdateCancelsPendingReset(t *testing.T) {
	b := NewBroadcasterWithResetDelay(20 * time.Millisecond)

	b.Complete("done")
	b.Begin(StageUploading, "next run")

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, StageUploading, b.State().Stage)
}

func TestBeginClearsPreviousRun(t *testing.T) {
	b := NewBroadcaster()

	b.Step(5, 10, "halfway")
	b.Fail(errors.New("boom"))

	state := b.Begin(StageUploading, "fresh run")
	assert.Equal(t, 0, state.Progress)
	assert.Equal(t, 0, state.Current)
	assert.Equal(t, 0, state.Total)
	assert.Empty(t, state.Error)
}
