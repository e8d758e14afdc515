package tcp

import (
	"io"
	"net"
	"time"

	"github.com/YiuTerran/go-netcore/network"
	"github.com/YiuTerran/go-netcore/network/buffer"
	"github.com/YiuTerran/go-netcore/network/ioc"
	"github.com/YiuTerran/go-netcore/network/netaddr"
	"github.com/YiuTerran/go-netcore/network/thread"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func readPacket(c net.Conn) (recvPacket, error) {
	_ = c.SetReadDeadline(time.Now().Add(wait))
	hdr := make([]byte, PacketHeaderSize)
	if _, err := io.ReadFull(c, hdr); err != nil {
		return recvPacket{}, err
	}
	h, _ := ParsePacketHeader(hdr)
	body := make([]byte, int(h.Size)-PacketHeaderSize)
	if _, err := io.ReadFull(c, body); err != nil {
		return recvPacket{}, err
	}
	return recvPacket{id: h.ID, body: string(body)}, nil
}

var _ = Describe("Service", func() {
	var (
		ctx  *ioc.Context
		stop func()
		mgr  *buffer.Manager
		l    buffer.Local
		rec  *recorder
	)
	loopback := netaddr.MustParse("127.0.0.1:0")
	factory := func(ctx *ioc.Context) *Session {
		return NewSession(ctx, rec.handler(), RecvBuffer(1024, 4))
	}

	BeforeEach(func() {
		ctx, stop = startIOC(4)
		mgr = buffer.NewManager()
		rec = newRecorder()
	})

	AfterEach(func() {
		l.Release()
		stop()
	})

	Context("server", func() {
		var server *ServerService

		JustBeforeEach(func() {
			Expect(server.Start()).To(Succeed())
		})

		AfterEach(func() {
			server.CloseService()
		})

		When("below capacity", func() {
			BeforeEach(func() {
				server = NewServerService(ctx, loopback, factory, Name("echo"), MaxSessionCount(3))
			})

			It("resolves the listening port", func() {
				Expect(server.Addr().Port()).NotTo(BeZero())
				Expect(server.Kind()).To(Equal(KindServer))
				Expect(server.Name()).To(Equal("echo"))
			})

			It("broadcasts one buffer to every session", func() {
				var peers []net.Conn
				for i := 0; i < 3; i++ {
					c, err := net.Dial("tcp", server.Addr().String())
					Expect(err).NotTo(HaveOccurred())
					defer c.Close()
					peers = append(peers, c)
				}
				Eventually(server.SessionCount, wait).Should(Equal(3))

				b, err := EncodePacket(mgr, &l, 9, []byte("hello all"))
				Expect(err).NotTo(HaveOccurred())
				server.Broadcast(b)
				b.Release()

				for _, c := range peers {
					Expect(readPacket(c)).To(Equal(recvPacket{id: 9, body: "hello all"}))
				}
			})

			It("disconnects every session on close", func() {
				c, err := net.Dial("tcp", server.Addr().String())
				Expect(err).NotTo(HaveOccurred())
				defer c.Close()
				Eventually(rec.connected, wait).Should(Receive())

				server.CloseService()
				Expect(rec.disconnected).To(Receive(Equal(network.CauseServiceClosed)))
				Expect(server.SessionCount()).To(BeZero())
				Expect(server.Closed()).To(BeTrue())
				Expect(server.Start()).To(MatchError(network.ErrServiceClosed))

				_ = c.SetReadDeadline(time.Now().Add(wait))
				_, err = c.Read(make([]byte, 1))
				Expect(err).To(MatchError(io.EOF))
			})
		})

		When("at capacity", func() {
			var occupant *Session

			BeforeEach(func() {
				server = NewServerService(ctx, loopback, factory, MaxSessionCount(1))
			})

			JustBeforeEach(func() {
				occupant = server.CreateSession()
				occupant.state.Store(int32(StateConnected))
				Expect(server.AddSession(occupant)).To(BeTrue())
			})

			It("rejects without OnConnected and resumes after a release", func() {
				c, err := net.Dial("tcp", server.Addr().String())
				Expect(err).NotTo(HaveOccurred())
				defer c.Close()

				Eventually(rec.disconnected, wait).Should(Receive(Equal(network.CauseMaxSessions)))
				Expect(rec.connected).NotTo(Receive())
				Expect(server.SessionCount()).To(Equal(1))

				Expect(occupant.Disconnect("make room")).To(BeTrue())
				Expect(rec.disconnected).To(Receive(Equal("make room")))

				c2, err := net.Dial("tcp", server.Addr().String())
				Expect(err).NotTo(HaveOccurred())
				defer c2.Close()
				Eventually(rec.connected, wait).Should(Receive())
				Expect(server.SessionCount()).To(Equal(1))
			})
		})
	})

	Context("client", func() {
		It("refuses to start without a factory", func() {
			client := NewClientService(ctx, loopback, nil)
			Expect(client.Start()).To(MatchError(network.ErrNoFactory))
			Expect(client.CreateSession()).To(BeNil())
		})

		It("leaves a failed session disconnected", func() {
			ln, err := net.Listen("tcp", "127.0.0.1:0")
			Expect(err).NotTo(HaveOccurred())
			target := netaddr.FromNetAddr(ln.Addr())
			Expect(ln.Close()).To(Succeed())

			client := NewClientService(ctx, target, factory)
			Expect(client.Start()).To(Succeed())
			Consistently(rec.connected, 200*time.Millisecond).ShouldNot(Receive())
			Expect(client.SessionCount()).To(BeZero())
		})

		It("delivers records written in one send in order", func() {
			server := NewServerService(ctx, loopback, factory, MaxSessionCount(1))
			Expect(server.Start()).To(Succeed())
			defer server.CloseService()

			clientRec := newRecorder()
			client := NewClientService(ctx, server.Addr(), func(ctx *ioc.Context) *Session {
				h := clientRec.handler()
				h.Connected = func(tls *thread.TLS, s *Session) {
					var stream []byte
					for i, body := range []string{"one", "two", "three"} {
						stream = append(stream, packet(uint16(i+1), body)...)
					}
					b, err := mgr.Write(&tls.Send, stream)
					if err != nil {
						panic(err)
					}
					s.Send(b)
					b.Release()
					clientRec.connected <- s
				}
				return NewSession(ctx, h)
			}, Name("dialer"), MaxSessionCount(1))
			Expect(client.Start()).To(Succeed())
			defer client.CloseService()

			Eventually(clientRec.connected, wait).Should(Receive())
			var got []recvPacket
			for i := 0; i < 3; i++ {
				var p recvPacket
				Eventually(rec.packets, wait).Should(Receive(&p))
				got = append(got, p)
			}
			Expect(got).To(Equal([]recvPacket{{1, "one"}, {2, "two"}, {3, "three"}}))
			Expect(client.SessionCount()).To(Equal(1))

			server.CloseService()
			Eventually(clientRec.disconnected, wait).Should(Receive(Equal(network.CausePeerClosed)))
			Eventually(client.SessionCount, wait).Should(BeZero())
		})
	})
})
