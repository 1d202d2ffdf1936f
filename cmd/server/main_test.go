package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/tontine/internal/notify"
)

func TestNewNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	notifier, hub := newNotifier(logger)
	events, cancel := hub.Subscribe("g1", 1)
	defer cancel()

	require.NoError(t, notifier.Notify(context.Background(), notify.Event{Type: notify.RoundOpened, GroupID: "g1", Sequence: 2}))

	select {
	case e := <-events:
		assert.Equal(t, notify.RoundOpened, e.Type)
		assert.Equal(t, 2, e.Sequence)
	default:
		t.Fatal("hub subscriber received no event")
	}
	assert.Contains(t, buf.String(), "ROUND_OPENED")
}
