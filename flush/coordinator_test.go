package flush_test

import (
	"sync"
	"testing"
	"time"

	"github.com/nyzil/tilepyramid/flush"
	"github.com/stretchr/testify/require"
)

func TestScheduleAndDrainReturnsDirtyBytesToZero(t *testing.T) {
	c := flush.New(flush.WithThreshold(1 << 20))
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		c.Schedule(1<<10, func() error {
			defer wg.Done()
			return nil
		})
	}
	wg.Wait()

	require.Eventually(t, func() bool { return c.DirtyBytes() == 0 }, time.Second, time.Millisecond)
}

func TestThrottleCrossesUpAndDown(t *testing.T) {
	release := make(chan struct{})
	c := flush.New(flush.WithThreshold(100))

	c.Schedule(150, func() error {
		<-release
		return nil
	})

	require.Eventually(t, c.Throttled, time.Second, time.Millisecond)

	waitDone := make(chan struct{})
	go func() {
		c.Wait()
		close(waitDone)
	}()

	select {
	case <-waitDone:
		t.Fatal("Wait returned while still throttled")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)

	select {
	case <-waitDone:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after throttle cleared")
	}

	require.NoError(t, c.Close())
}

func TestBackgroundSyncErrorIsNotFatal(t *testing.T) {
	c := flush.New()
	defer c.Close()

	done := make(chan struct{})
	c.Schedule(10, func() error {
		defer close(done)
		return assertionError{}
	})

	<-done
	require.Eventually(t, func() bool { return c.DirtyBytes() == 0 }, time.Second, time.Millisecond)
}

type assertionError struct{}

func (assertionError) Error() string { return "simulated fsync failure" }

func TestGlobalLazyInit(t *testing.T) {
	require.NoError(t, flush.Shutdown())
	c := flush.Global()
	require.NotNil(t, c)
	require.NoError(t, flush.Shutdown())
}
