package nodefactory

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/project-sai/chatflow/internal/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frozenClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestCreate_TextMessageDefaults(t *testing.T) {
	f := New(WithClock(frozenClock(1700000000000)))

	n, err := f.Create(flow.TextMessage, DefaultPosition, DefaultData(flow.TextMessage))
	require.NoError(t, err)

	assert.Equal(t, "1700000000000", n.ID)
	assert.Equal(t, flow.TextMessage, n.Type)
	assert.Equal(t, flow.Position{X: 100, Y: 100}, n.Position)
	assert.Equal(t, "New Message", n.Data.Text)
	assert.False(t, n.Selected, "new nodes are not auto-selected")
}

func TestCreate_UnknownType(t *testing.T) {
	f := New()

	n, err := f.Create(flow.NodeType("image"), DefaultPosition, flow.NodeData{})
	assert.Nil(t, n)
	assert.ErrorIs(t, err, flow.ErrUnknownNodeType)
}

// TestNextID_FrozenClock verifies that ids keep increasing when many nodes are
// created within the same millisecond.
func TestNextID_FrozenClock(t *testing.T) {
	f := New(WithClock(frozenClock(5000)))

	var prev int64
	for i := 0; i < 100; i++ {
		id, err := strconv.ParseInt(f.NextID(), 10, 64)
		require.NoError(t, err)
		assert.Greater(t, id, prev)
		prev = id
	}
	assert.Equal(t, int64(5099), prev)
}

func TestNextID_ClockGoesBackwards(t *testing.T) {
	ms := int64(9000)
	f := New(WithClock(func() time.Time { return time.UnixMilli(ms) }))

	first := f.NextID()
	ms = 1000
	second := f.NextID()

	assert.Equal(t, "9000", first)
	assert.Equal(t, "9001", second)
}

func TestNextID_ConcurrentUnique(t *testing.T) {
	f := New()
	const n = 200

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		ids = make(map[string]struct{}, n)
	)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			id := f.NextID()
			mu.Lock()
			ids[id] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, ids, n, "every generated id must be unique")
}
