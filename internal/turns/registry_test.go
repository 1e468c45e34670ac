package turns_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/sous/internal/turns"
)

func TestAcquire_SecondCallerRejected(t *testing.T) {
	r := turns.NewRegistry()

	release, ok := r.Acquire("user-1")
	require.True(t, ok)

	_, ok = r.Acquire("user-1")
	assert.False(t, ok, "second concurrent turn must be rejected, not queued")

	release()

	release2, ok := r.Acquire("user-1")
	assert.True(t, ok, "sequential turns after release must succeed")
	release2()
}

func TestAcquire_IndependentUsers(t *testing.T) {
	r := turns.NewRegistry()

	release1, ok := r.Acquire("user-1")
	require.True(t, ok)
	defer release1()

	release2, ok := r.Acquire("user-2")
	assert.True(t, ok, "different users never contend")
	defer release2()
}

func TestRelease_Idempotent(t *testing.T) {
	r := turns.NewRegistry()

	release, ok := r.Acquire("user-1")
	require.True(t, ok)

	release()
	release() // double release must not free someone else's slot

	release2, ok := r.Acquire("user-1")
	require.True(t, ok)

	_, ok = r.Acquire("user-1")
	assert.False(t, ok)
	release2()
}

func TestAcquire_ConcurrentFirstContact(t *testing.T) {
	// Two messages from a never-seen user racing to insert the lock entry:
	// exactly one may win, and the table must not corrupt.
	r := turns.NewRegistry()

	const attempts = 100
	var wg sync.WaitGroup
	wins := make(chan func(), attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if release, ok := r.Acquire("new-user"); ok {
				wins <- release
			}
		}()
	}
	wg.Wait()
	close(wins)

	var releases []func()
	for release := range wins {
		releases = append(releases, release)
	}
	require.Len(t, releases, 1, "exactly one concurrent acquire may win")

	releases[0]()
	assert.False(t, r.Busy("new-user"))
}

func TestActiveTurns(t *testing.T) {
	r := turns.NewRegistry()
	assert.Equal(t, 0, r.ActiveTurns())

	releaseA, _ := r.Acquire("a")
	releaseB, _ := r.Acquire("b")
	assert.Equal(t, 2, r.ActiveTurns())

	releaseA()
	releaseB()
	assert.Equal(t, 0, r.ActiveTurns())
}
