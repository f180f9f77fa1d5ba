package core

import (
	"testing"
)

func benchmarkRoomBroadcast(b *testing.B, recipients int) {
	hub := newTestHub()

	sinks := make([]ChanSink, 0, recipients)
	for range recipients {
		sink := NewChanSink(recipients + 1)
		hub.Join(1, 0, "client", JoinFlags{}, sink)
		sinks = append(sinks, sink)
	}

	// Drain all but the first recipient to avoid dropping members.
	target := sinks[0]
	done := make(chan struct{})
	defer close(done)
	for _, s := range sinks[1:] {
		go func(s ChanSink) {
			for {
				select {
				case <-s:
				case <-done:
					return
				}
			}
		}(s)
	}
	for len(target) > 0 {
		<-target
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		hub.Broadcast(1, `{"msg":"payload","id":1,"member":"sender","date":""}`)
		<-target
	}
}

func BenchmarkRoomBroadcast_10(b *testing.B)  { benchmarkRoomBroadcast(b, 10) }
func BenchmarkRoomBroadcast_100(b *testing.B) { benchmarkRoomBroadcast(b, 100) }
func BenchmarkRoomBroadcast_500(b *testing.B) { benchmarkRoomBroadcast(b, 500) }
