package tcp

import (
	"testing"

	"github.com/YiuTerran/go-netcore/network/buffer"
	"github.com/YiuTerran/go-netcore/network/thread"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketHandler_OnRecv(t *testing.T) {
	var got []recvPacket
	h := &PacketHandler{
		OnRecvPacket: func(_ *thread.TLS, _ *Session, hd PacketHeader, body []byte) {
			got = append(got, recvPacket{id: hd.ID, body: string(body)})
		},
	}
	s := NewSession(nil, h)
	s.state.Store(int32(StateConnected))
	tls := thread.InitTLS()

	one := packet(7, "abcdef")
	stream := append(append([]byte{}, one...), packet(8, "")...)
	stream = append(stream, one[:5]...)

	tests := []struct {
		name string
		data []byte
		want int
	}{
		{"empty", nil, 0},
		{"partial header", one[:3], 0},
		{"partial body", one[:6], 0},
		{"two and a half", stream, len(one) + PacketHeaderSize},
		{"bad size", []byte{2, 0, 1, 0}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.OnRecv(tls, s, tt.data))
		})
	}
	assert.Equal(t, []recvPacket{{7, "abcdef"}, {8, ""}}, got)
}

func TestPacketHandler_StopsAfterDisconnect(t *testing.T) {
	var got []uint16
	var causes []string
	h := &PacketHandler{
		HandlerFuncs: HandlerFuncs{
			Disconnected: func(_ *Session, cause string) { causes = append(causes, cause) },
		},
		OnRecvPacket: func(_ *thread.TLS, s *Session, hd PacketHeader, _ []byte) {
			got = append(got, hd.ID)
			if hd.ID == 2 {
				s.Disconnect("kick")
			}
		},
	}
	s := NewSession(nil, h)
	s.state.Store(int32(StateConnected))

	var stream []byte
	for id := uint16(1); id <= 4; id++ {
		stream = append(stream, packet(id, "xy")...)
	}
	assert.Equal(t, 2*(PacketHeaderSize+2), h.OnRecv(thread.InitTLS(), s, stream))
	assert.Equal(t, []uint16{1, 2}, got)
	assert.Equal(t, []string{"kick"}, causes)
}

func TestEncodePacket(t *testing.T) {
	mgr := buffer.NewManager()
	var l buffer.Local
	defer l.Release()

	b, err := EncodePacket(mgr, &l, 3, []byte("hello"))
	require.NoError(t, err)
	defer b.Release()
	assert.True(t, b.Closed())
	assert.Equal(t, packet(3, "hello"), b.Bytes())

	hd, ok := ParsePacketHeader(b.Bytes())
	require.True(t, ok)
	assert.Equal(t, PacketHeader{Size: 9, ID: 3}, hd)

	_, err = EncodePacket(mgr, &l, 1, make([]byte, 0x10000))
	assert.ErrorIs(t, err, ErrPacketTooLarge)
	_, err = EncodePacket(mgr, &l, 1, make([]byte, buffer.ChunkSize))
	assert.ErrorIs(t, err, buffer.ErrAllocTooLarge)
}
