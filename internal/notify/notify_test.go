package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failing struct{ err error }

func (f failing) Notify(context.Context, Event) error { return f.err }

func TestHub(t *testing.T) {
	ctx := context.Background()

	t.Run("filters by group", func(t *testing.T) {
		h := NewHub()
		all, cancelAll := h.Subscribe("", 4)
		defer cancelAll()
		g1, cancelG1 := h.Subscribe("g1", 4)
		defer cancelG1()

		require.NoError(t, h.Notify(ctx, Event{Type: RoundOpened, GroupID: "g1"}))
		require.NoError(t, h.Notify(ctx, Event{Type: RoundOpened, GroupID: "g2"}))

		assert.Len(t, all, 2)
		assert.Len(t, g1, 1)
		assert.Equal(t, "g1", (<-g1).GroupID)
	})

	t.Run("full subscriber does not block", func(t *testing.T) {
		h := NewHub()
		ch, cancel := h.Subscribe("g1", 1)
		defer cancel()

		for i := 0; i < 3; i++ {
			require.NoError(t, h.Notify(ctx, Event{Type: PaymentRecorded, GroupID: "g1"}))
		}
		assert.Len(t, ch, 1)
		assert.Equal(t, uint64(2), h.Dropped())
	})

	t.Run("cancel closes the channel", func(t *testing.T) {
		h := NewHub()
		ch, cancel := h.Subscribe("", 1)
		cancel()
		cancel()
		_, open := <-ch
		assert.False(t, open)
		require.NoError(t, h.Notify(ctx, Event{GroupID: "g1"}))
	})
}

func TestMulti(t *testing.T) {
	boom := errors.New("boom")
	h := NewHub()
	ch, cancel := h.Subscribe("", 1)
	defer cancel()

	err := Multi{failing{boom}, h}.Notify(context.Background(), Event{Type: MemberJoined, GroupID: "g"})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, ch, 1, "later notifiers still run")
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := LogNotifier{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	require.NoError(t, n.Notify(context.Background(), Event{Type: DistributionCompleted, GroupID: "g1", Amount: 19800, Sequence: 1}))
	assert.Contains(t, buf.String(), `"type":"DISTRIBUTION_COMPLETED"`)
	assert.Contains(t, buf.String(), `"amount":19800`)
}
