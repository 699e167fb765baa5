package http

import (
	"fmt"
	"testing"

	"github.com/owlchat/owlchat-server/internal/metrics"
	"github.com/owlchat/owlchat-server/internal/proto"
)

func benchmarkChannelBroadcast(b *testing.B, recipients int) {
	hub := NewHub(64, testLogger(), metrics.New())

	sender := hub.register("sender")
	hub.join(sender, "bench")

	conns := make([]*connection, 0, recipients)
	for i := 0; i < recipients; i++ {
		c := hub.register(fmt.Sprintf("c%d", i))
		hub.join(c, "bench")
		conns = append(conns, c)
	}

	// Drain every recipient but the first to avoid queue backpressure.
	target := conns[0]
	for _, c := range conns[1:] {
		go func(cl *connection) {
			for range cl.send {
			}
		}(c)
	}
	b.Cleanup(func() {
		for _, c := range conns {
			hub.unregister(c)
		}
		hub.unregister(sender)
	})

	msg := proto.Outbound{Type: proto.TypeChannelEvent}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		hub.toChannel("bench", sender, msg)
		<-target.send
	}
}

func BenchmarkChannelBroadcast_10(b *testing.B)  { benchmarkChannelBroadcast(b, 10) }
func BenchmarkChannelBroadcast_100(b *testing.B) { benchmarkChannelBroadcast(b, 100) }
func BenchmarkChannelBroadcast_500(b *testing.B) { benchmarkChannelBroadcast(b, 500) }
