package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloseAfter_WaitsForScheduler(t *testing.T) {
	done := make(chan struct{})
	closed := make(chan struct{})
	result := make(chan error, 1)

	go func() {
		result <- closeAfter(context.Background(), done, func() error {
			close(closed)
			return nil
		})
	}()

	select {
	case <-closed:
		t.Fatal("closed while the scheduler was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(done)
	select {
	case err := <-result:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("closeAfter did not return")
	}
	_, ok := <-closed
	assert.False(t, ok)
}

func TestCloseAfter_ClosesOnTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false

	err := closeAfter(ctx, make(chan struct{}), func() error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, called)
}
