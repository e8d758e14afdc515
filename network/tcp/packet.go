package tcp

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/YiuTerran/go-netcore/network/buffer"
	"github.com/YiuTerran/go-netcore/network/thread"
)

// 记录格式，小端序
// ----------------------------
// | size(2) | id(2) | body   |
// ----------------------------
// size包含头部本身
const PacketHeaderSize = 4

var ErrPacketTooLarge = errors.New("tcp: packet too large")

type PacketHeader struct {
	Size uint16
	ID   uint16
}

// ParsePacketHeader p不足一个头部时返回false
func ParsePacketHeader(p []byte) (PacketHeader, bool) {
	if len(p) < PacketHeaderSize {
		return PacketHeader{}, false
	}
	return PacketHeader{
		Size: binary.LittleEndian.Uint16(p),
		ID:   binary.LittleEndian.Uint16(p[2:]),
	}, true
}

func (h PacketHeader) Put(p []byte) {
	binary.LittleEndian.PutUint16(p, h.Size)
	binary.LittleEndian.PutUint16(p[2:], h.ID)
}

// PacketFunc body指向接收缓冲区，回调返回后失效
type PacketFunc func(tls *thread.TLS, s *Session, header PacketHeader, body []byte)

// PacketHandler 按记录切分数据流，每条完整的记录回调一次OnRecvPacket
type PacketHandler struct {
	HandlerFuncs
	OnRecvPacket PacketFunc
}

var _ Handler = (*PacketHandler)(nil)

func (h *PacketHandler) OnRecv(tls *thread.TLS, s *Session, data []byte) int {
	processed := 0
	for {
		header, ok := ParsePacketHeader(data[processed:])
		if !ok {
			break
		}
		size := int(header.Size)
		if size < PacketHeaderSize {
			return -1
		}
		if len(data)-processed < size {
			break
		}
		if h.OnRecvPacket != nil {
			h.OnRecvPacket(tls, s, header, data[processed+PacketHeaderSize:processed+size])
		}
		s.metrics().packets.Inc()
		processed += size
		if !s.IsConnected() {
			break
		}
	}
	return processed
}

// EncodePacket 在l的chunk上分配一条完整的记录，返回的buffer已经Close
func EncodePacket(mgr *buffer.Manager, l *buffer.Local, id uint16, body []byte) (*buffer.SendBuffer, error) {
	size := PacketHeaderSize + len(body)
	if size > math.MaxUint16 {
		return nil, ErrPacketTooLarge
	}
	b, err := mgr.Open(l, size)
	if err != nil {
		return nil, err
	}
	p := b.Buffer()
	PacketHeader{Size: uint16(size), ID: id}.Put(p)
	copy(p[PacketHeaderSize:], body)
	b.Close(size)
	return b, nil
}
