package netaddr

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantIP   string
		wantPort uint16
		wantErr  bool
	}{
		{"ipv4", "127.0.0.1:7777", "127.0.0.1", 7777, false},
		{"ipv6", "[::1]:80", "::1", 80, false},
		{"any", ":9000", "0.0.0.0", 9000, false},
		{"bad port", "127.0.0.1:99999", "", 0, true},
		{"bad ip", "localhost:80", "", 0, true},
		{"no port", "127.0.0.1", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantIP, got.IP())
			assert.Equal(t, tt.wantPort, got.Port())
		})
	}
}

func TestEqualAndFromNetAddr(t *testing.T) {
	a, err := New("10.0.0.1", 8080)
	require.NoError(t, err)
	b := FromNetAddr(&net.TCPAddr{IP: net.ParseIP("10.0.0.1"), Port: 8080})
	assert.True(t, a.Equal(b))
	assert.Equal(t, a, b)
	assert.Equal(t, "10.0.0.1:8080", b.String())
	assert.False(t, a.Equal(Any(8080)))
	assert.False(t, FromNetAddr(nil).IsValid())
}
