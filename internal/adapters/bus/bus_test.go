package bus_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shirlenelss/thomas-cup-kafka/internal/adapters/bus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPublishConsume(t *testing.T) {
	Convey("Given an in-memory bus", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		Convey("When a group consumes a topic", func() {
			b := bus.NewInMemoryBus(bus.WithPartitions(4))
			defer func() { _ = b.Close() }()

			var mu sync.Mutex
			var got []string
			done := make(chan struct{}, 10)
			err := b.Consume(ctx, "scores", "g1", func(_ context.Context, m bus.Message) {
				mu.Lock()
				got = append(got, string(m.Payload))
				mu.Unlock()
				done <- struct{}{}
			})
			So(err, ShouldBeNil)

			So(b.Publish(ctx, "scores", "m1", []byte("a")), ShouldBeNil)
			So(b.Publish(ctx, "scores", "m1", []byte("b")), ShouldBeNil)
			<-done
			<-done

			Convey("Then both messages arrive", func() {
				mu.Lock()
				defer mu.Unlock()
				So(len(got), ShouldEqual, 2)
			})
		})

		Convey("When messages share an ordering key", func() {
			b := bus.NewInMemoryBus(bus.WithPartitions(3))
			defer func() { _ = b.Close() }()

			const n = 200
			var mu sync.Mutex
			perKey := make(map[string][]int)
			var wg sync.WaitGroup
			wg.Add(n)
			err := b.Consume(ctx, "scores", "g1", func(_ context.Context, m bus.Message) {
				var seq int
				_, _ = fmt.Sscanf(string(m.Payload), "%d", &seq)
				mu.Lock()
				perKey[m.Key] = append(perKey[m.Key], seq)
				mu.Unlock()
				wg.Done()
			})
			So(err, ShouldBeNil)

			keys := []string{"m1", "m2", "m3", "m4", "m5"}
			for i := 0; i < n; i++ {
				key := keys[i%len(keys)]
				So(b.Publish(ctx, "scores", key, []byte(fmt.Sprintf("%d", i))), ShouldBeNil)
			}
			wg.Wait()

			Convey("Then delivery order per key matches publish order", func() {
				mu.Lock()
				defer mu.Unlock()
				for _, seqs := range perKey {
					for i := 1; i < len(seqs); i++ {
						So(seqs[i], ShouldBeGreaterThan, seqs[i-1])
					}
				}
			})
		})

		Convey("When two groups consume the same topic", func() {
			b := bus.NewInMemoryBus()
			defer func() { _ = b.Close() }()

			g1 := make(chan string, 4)
			g2 := make(chan string, 4)
			So(b.Consume(ctx, "scores", "g1", func(_ context.Context, m bus.Message) { g1 <- string(m.Payload) }), ShouldBeNil)
			So(b.Consume(ctx, "scores", "g2", func(_ context.Context, m bus.Message) { g2 <- string(m.Payload) }), ShouldBeNil)

			So(b.Publish(ctx, "scores", "m1", []byte("x")), ShouldBeNil)

			Convey("Then both groups receive the message", func() {
				select {
				case v := <-g1:
					So(v, ShouldEqual, "x")
				case <-time.After(time.Second):
					So("timeout", ShouldBeEmpty)
				}
				select {
				case v := <-g2:
					So(v, ShouldEqual, "x")
				case <-time.After(time.Second):
					So("timeout", ShouldBeEmpty)
				}
			})
		})

		Convey("When registering the same group twice", func() {
			b := bus.NewInMemoryBus()
			defer func() { _ = b.Close() }()

			noop := func(context.Context, bus.Message) {}
			So(b.Consume(ctx, "scores", "g1", noop), ShouldBeNil)
			So(errors.Is(b.Consume(ctx, "scores", "g1", noop), bus.ErrGroupExists), ShouldBeTrue)
		})

		Convey("When a partition buffer is full", func() {
			b := bus.NewInMemoryBus(bus.WithPartitions(1), bus.WithBufferSize(1))
			defer func() { _ = b.Close() }()

			// Block the single partition by never returning from the handler
			// until released.
			release := make(chan struct{})
			started := make(chan struct{})
			So(b.Consume(ctx, "scores", "g1", func(_ context.Context, _ bus.Message) {
				close(started)
				<-release
			}), ShouldBeNil)

			So(b.Publish(ctx, "scores", "m1", []byte("1")), ShouldBeNil) // consumed, blocks handler
			<-started
			So(b.Publish(ctx, "scores", "m1", []byte("2")), ShouldBeNil) // fills the buffer

			err := b.Publish(ctx, "scores", "m1", []byte("3"))
			So(errors.Is(err, bus.ErrBackpressure), ShouldBeTrue)
			close(release)
		})

		Convey("When the bus is closed", func() {
			b := bus.NewInMemoryBus()
			So(b.Close(), ShouldBeNil)
			So(b.IsClosed(), ShouldBeTrue)
			So(errors.Is(b.Publish(ctx, "scores", "m1", nil), bus.ErrClosed), ShouldBeTrue)
			So(errors.Is(b.Consume(ctx, "scores", "g1", func(context.Context, bus.Message) {}), bus.ErrClosed), ShouldBeTrue)
			So(b.Close(), ShouldBeNil) // idempotent
		})

		Convey("When publishing to a topic with no groups", func() {
			b := bus.NewInMemoryBus()
			defer func() { _ = b.Close() }()
			So(b.Publish(ctx, "nobody-home", "k", []byte("x")), ShouldBeNil)
		})
	})
}
