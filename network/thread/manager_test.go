package thread

import (
	"sync"
	"testing"

	"github.com/YiuTerran/go-netcore/network/buffer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_UniqueIDs(t *testing.T) {
	m := NewManager()
	var (
		mu  sync.Mutex
		ids = map[int32]bool{m.Main().ID: true}
	)
	m.LaunchN(16, func(tls *TLS) {
		mu.Lock()
		defer mu.Unlock()
		ids[tls.ID] = true
	})
	m.Join()

	assert.Len(t, ids, 17)
	for id := range ids {
		assert.Positive(t, id)
	}
	assert.EqualValues(t, 0, m.Running())
}

func TestManager_DestroyReturnsChunk(t *testing.T) {
	pool := buffer.NewManagerSize(128)
	m := NewManager()
	m.LaunchN(4, func(tls *TLS) {
		b, err := pool.Write(&tls.Send, []byte("ping"))
		if err != nil {
			panic(err)
		}
		b.Release()
	})
	m.Join()

	// 先退出的worker归还的chunk可能被后启动的复用
	require.True(t, pool.Allocated() >= 1 && pool.Allocated() <= 4)
	assert.EqualValues(t, pool.Allocated(), pool.PoolSize())
}

func TestManager_PanicDoesNotBlockJoin(t *testing.T) {
	m := NewManager()
	m.Launch(func(tls *TLS) {
		panic("boom")
	})
	m.Join()
	assert.EqualValues(t, 0, m.Running())
}
