package host_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avl-tools/tinyvm/internal/host"
	"github.com/avl-tools/tinyvm/internal/isa"
)

func TestChannelRoundTrip(t *testing.T) {
	ch := host.NewChannel(1, 1)
	ctx := context.Background()

	ch.Feed(isa.FromInt(42))

	w, err := ch.ReadWord(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(42), w.Int())

	require.NoError(t, ch.WriteWord(ctx, isa.FromInt(7)))
	assert.Equal(t, int32(7), ch.Drain().Int())
}

func TestChannelCloseUnblocksReaders(t *testing.T) {
	ch := host.NewChannel(0, 0)
	ctx := context.Background()

	done := make(chan error, 1)

	go func() {
		_, err := ch.ReadWord(ctx)
		done <- err
	}()

	ch.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, host.ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("ReadWord did not unblock after Close")
	}
}

func TestChannelHonorsContextCancellation(t *testing.T) {
	ch := host.NewChannel(0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ch.ReadWord(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	err = ch.WriteWord(ctx, isa.FromInt(1))
	assert.ErrorIs(t, err, context.Canceled)
}
