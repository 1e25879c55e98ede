package kernel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDeliversInterrupts(t *testing.T) {
	k := newTestKernel(t)
	dev := k.NewChan()
	asleep := make(chan struct{}, 1)
	woke := make(chan int, 1)

	pid, err := k.CreateProcess(func() {
		// The interrupt is only delivered once this process is off the
		// CPU, so announcing before Sleep cannot lose the wakeup.
		asleep <- struct{}{}
		k.Sleep(dev)
		woke <- k.GetPID()
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- k.Run(ctx) }()

	<-asleep
	k.Interrupt(dev)
	select {
	case got := <-woke:
		assert.Equal(t, pid, got)
	case <-time.After(5 * time.Second):
		t.Fatal("sleeper never woke")
	}

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	got, status, err := k.Wait()
	require.NoError(t, err)
	assert.Equal(t, pid, got)
	assert.Equal(t, 0, status)
}

func TestRunReturnsWhenCancelled(t *testing.T) {
	k := newTestKernel(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, k.Run(ctx), context.Canceled)

	ctx, cancel = context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, k.Run(ctx), context.DeadlineExceeded)
}

func TestRunSchedulesChildrenOfProcesses(t *testing.T) {
	k := newTestKernel(t)
	dev := k.NewChan()
	asleep := make(chan struct{}, 1)
	reaped := make(chan [2]int, 1)

	parent, err := k.CreateProcess(func() {
		asleep <- struct{}{}
		k.Sleep(dev)
		child, err := k.CreateProcess(func() { k.Exit(3) })
		if err != nil {
			panic(err)
		}
		pid, status, err := k.Wait()
		if err != nil || pid != child {
			panic(err)
		}
		reaped <- [2]int{pid, status}
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- k.Run(ctx) }()

	<-asleep
	k.Interrupt(dev)
	select {
	case got := <-reaped:
		assert.Equal(t, parent+1, got[0])
		assert.Equal(t, 3, got[1])
	case <-time.After(5 * time.Second):
		t.Fatal("child created under Run never ran")
	}

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	got, _, err := k.Wait()
	require.NoError(t, err)
	assert.Equal(t, parent, got)
}
