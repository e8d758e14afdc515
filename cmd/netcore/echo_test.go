package main

import (
	"testing"
	"time"

	"github.com/YiuTerran/go-netcore/config"
	"github.com/YiuTerran/go-netcore/module"
	"github.com/YiuTerran/go-netcore/network/netaddr"
	"github.com/YiuTerran/go-netcore/network/tcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEchoRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		broadcast bool
		sessions  int
		records   int
	}{
		{"echo", false, 3, 5},
		{"broadcast single", true, 1, 4},
		{"no records", false, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newApp(2)
			var l module.Loader
			server := tcp.NewServerService(a.ctx, netaddr.MustParse("127.0.0.1:0"),
				echoFactory(a.mgr, tt.broadcast), tcp.Name("test-echo"), tcp.MaxSessionCount(tt.sessions))
			require.NoError(t, l.Load(a.workerModule(), serviceModule(server)))

			d := newDialer(a.mgr, tt.sessions, tt.records)
			client := tcp.NewClientService(a.ctx, server.Addr(), d.factory,
				tcp.Name("test-dialer"), tcp.MaxSessionCount(tt.sessions))
			require.NoError(t, l.Load(serviceModule(client), adminModule(config.Admin{})))

			select {
			case <-d.done:
			case <-time.After(5 * time.Second):
				t.Fatal("echoes did not arrive")
			}
			assert.EqualValues(t, tt.sessions*tt.records, d.echoed.Load())
			assert.Eventually(t, func() bool {
				return server.SessionCount() == tt.sessions
			}, 5*time.Second, 10*time.Millisecond)

			l.Destroy()
			assert.Zero(t, server.SessionCount())
			assert.Zero(t, client.SessionCount())
			// 关闭后才完成的写在自己的协程里归还buffer
			assert.Eventually(t, func() bool {
				return a.mgr.Allocated() == int64(a.mgr.PoolSize())
			}, 5*time.Second, 10*time.Millisecond)
		})
	}
}
