package filelock

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAndRelease(t *testing.T) {
	l := New()

	release, err := l.Acquire("/tmp/some-file.json", time.Second)
	require.NoError(t, err)
	assert.True(t, l.IsLocked("/tmp/some-file.json"))

	release()
	assert.False(t, l.IsLocked("/tmp/some-file.json"))
}

func TestAcquireTimesOut(t *testing.T) {
	l := New()

	release, err := l.Acquire("/tmp/contended.json", time.Second)
	require.NoError(t, err)
	defer release()

	_, err = l.Acquire("/tmp/contended.json", 120*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout acquiring lock")
}

func TestDifferentPathsDoNotContend(t *testing.T) {
	l := New()

	release, err := l.Acquire("/tmp/a.json", time.Second)
	require.NoError(t, err)
	defer release()

	release2, err := l.Acquire("/tmp/b.json", 100*time.Millisecond)
	require.NoError(t, err)
	release2()
}

func TestWithLockReleasesOnError(t *testing.T) {
	l := New()
	wantErr := errors.New("boom")

	err := l.WithLock("/tmp/x.json", func() error { return wantErr })
	assert.ErrorIs(t, err, wantErr)
	assert.False(t, l.IsLocked("/tmp/x.json"))
}

func TestWithLockSerializesWriters(t *testing.T) {
	l := New()

	var mu sync.Mutex
	var active, maxActive int

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.WithLock("/tmp/shared.json", func() error {
				mu.Lock()
				active++
				if active > maxActive {
					maxActive = active
				}
				mu.Unlock()

				time.Sleep(5 * time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive)
}
