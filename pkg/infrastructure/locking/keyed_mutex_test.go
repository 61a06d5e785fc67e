package locking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	m := NewKeyedMutex()
	ctx := context.Background()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := m.Acquire(ctx, "ING1")
			require.NoError(t, err)
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, m.size())
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	m := NewKeyedMutex()
	ctx := context.Background()

	release, err := m.Acquire(ctx, "ING1")
	require.NoError(t, err)
	defer release()

	other, err := m.Acquire(ctx, "ING2")
	require.NoError(t, err)
	other()
}

func TestKeyedMutexContextCancel(t *testing.T) {
	m := NewKeyedMutex()

	release, err := m.Acquire(context.Background(), "ING1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.Acquire(ctx, "ING2", "ING1")
	assert.ErrorIs(t, err, ErrNotObtained)

	release()
	assert.Equal(t, 0, m.size())

	again, err := m.Acquire(context.Background(), "ING2")
	require.NoError(t, err, "partially acquired keys must be released on failure")
	again()
}

func TestKeyedMutexMultiKeyNoDeadlock(t *testing.T) {
	m := NewKeyedMutex()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		keys := []string{"A", "B", "C"}
		if i%2 == 0 {
			keys = []string{"C", "B", "A", "A"}
		}
		wg.Add(1)
		go func(keys []string) {
			defer wg.Done()
			release, err := m.Acquire(ctx, keys...)
			require.NoError(t, err)
			release()
		}(keys)
	}
	wg.Wait()
}

func TestReleaseIsIdempotent(t *testing.T) {
	m := NewKeyedMutex()
	release, err := m.Acquire(context.Background(), "ING1")
	require.NoError(t, err)
	release()
	assert.NotPanics(t, release)
	assert.Equal(t, 0, m.size())
}
