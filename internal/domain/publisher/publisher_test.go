package publisher_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shirlenelss/thomas-cup-kafka/internal/domain/model"
	"github.com/shirlenelss/thomas-cup-kafka/internal/domain/publisher"
	"github.com/shirlenelss/thomas-cup-kafka/internal/domain/wire"
	"github.com/shirlenelss/thomas-cup-kafka/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeTransport records publishes and can fail a set number of times.
type fakeTransport struct {
	mu        sync.Mutex
	published []publishCall
	failures  int
}

type publishCall struct {
	topic   string
	key     string
	payload []byte
}

func (f *fakeTransport) Publish(_ context.Context, topic, key string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("transport down")
	}
	f.published = append(f.published, publishCall{topic: topic, key: key, payload: payload})
	return nil
}

func (f *fakeTransport) calls() []publishCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]publishCall, len(f.published))
	copy(out, f.published)
	return out
}

func mustUpdate(matchID string, a, b, game int, observedAt time.Time) model.ScoreUpdate {
	u, err := model.NewScoreUpdate("", matchID, "Malaysia", "Indonesia", a, b, game, "", observedAt)
	So(err, ShouldBeNil)
	return u
}

func TestOffer(t *testing.T) {
	Convey("Given a publisher over a fake transport", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx := context.Background()
		now := time.Now()

		Convey("When the first update for a match arrives", func() {
			ft := &fakeTransport{}
			p := publisher.New(ft)

			d, err := p.Offer(ctx, publisher.IntentLatest, mustUpdate("m1", 0, 0, 1, now))
			So(err, ShouldBeNil)
			So(d, ShouldEqual, publisher.Published)
			So(len(ft.calls()), ShouldEqual, 1)
			So(ft.calls()[0].topic, ShouldEqual, publisher.TopicLatest)
			So(ft.calls()[0].key, ShouldEqual, "m1")
		})

		Convey("When the identical update is offered twice", func() {
			ft := &fakeTransport{}
			p := publisher.New(ft)
			u := mustUpdate("m1", 5, 3, 1, now)

			d1, err := p.Offer(ctx, publisher.IntentLatest, u)
			So(err, ShouldBeNil)
			So(d1, ShouldEqual, publisher.Published)

			d2, err := p.Offer(ctx, publisher.IntentLatest, u)
			So(err, ShouldBeNil)
			So(d2, ShouldEqual, publisher.Suppressed)

			Convey("Then exactly one emission happened", func() {
				So(len(ft.calls()), ShouldEqual, 1)
				So(p.Size(), ShouldEqual, 1)
			})
		})

		Convey("When an update has identical scores and an earlier timestamp", func() {
			ft := &fakeTransport{}
			p := publisher.New(ft)

			_, err := p.Offer(ctx, publisher.IntentLatest, mustUpdate("m1", 5, 3, 1, now))
			So(err, ShouldBeNil)

			d, err := p.Offer(ctx, publisher.IntentLatest, mustUpdate("m1", 5, 3, 1, now.Add(-time.Minute)))
			So(err, ShouldBeNil)
			So(d, ShouldEqual, publisher.Suppressed)
		})

		Convey("When an update has identical scores but a strictly newer timestamp", func() {
			ft := &fakeTransport{}
			p := publisher.New(ft)

			_, _ = p.Offer(ctx, publisher.IntentLatest, mustUpdate("m1", 5, 3, 1, now))
			d, err := p.Offer(ctx, publisher.IntentLatest, mustUpdate("m1", 5, 3, 1, now.Add(time.Second)))
			So(err, ShouldBeNil)
			So(d, ShouldEqual, publisher.Published)
			So(len(ft.calls()), ShouldEqual, 2)
		})

		Convey("When scores change with the same timestamp", func() {
			// A same-timestamp correction still propagates.
			ft := &fakeTransport{}
			p := publisher.New(ft)

			_, _ = p.Offer(ctx, publisher.IntentLatest, mustUpdate("m1", 5, 3, 1, now))
			d, err := p.Offer(ctx, publisher.IntentLatest, mustUpdate("m1", 6, 3, 1, now))
			So(err, ShouldBeNil)
			So(d, ShouldEqual, publisher.Published)
		})

		Convey("When a score update completes the game", func() {
			ft := &fakeTransport{}
			p := publisher.New(ft)

			d, err := p.Offer(ctx, publisher.IntentScoreUpdate, mustUpdate("m1", 21, 19, 1, now))
			So(err, ShouldBeNil)
			So(d, ShouldEqual, publisher.Published)

			Convey("Then it re-emits on the latest-state topic with the winner set", func() {
				calls := ft.calls()
				So(len(calls), ShouldEqual, 2)
				So(calls[0].topic, ShouldEqual, publisher.TopicUpdateScore)
				So(calls[1].topic, ShouldEqual, publisher.TopicLatest)

				f, err := wire.Decode(calls[1].payload)
				So(err, ShouldBeNil)
				So(f.Winner, ShouldEqual, "Malaysia")
			})
		})

		Convey("When an incomplete score update arrives", func() {
			ft := &fakeTransport{}
			p := publisher.New(ft)

			_, err := p.Offer(ctx, publisher.IntentScoreUpdate, mustUpdate("m1", 10, 8, 1, now))
			So(err, ShouldBeNil)
			So(len(ft.calls()), ShouldEqual, 1)
			So(ft.calls()[0].topic, ShouldEqual, publisher.TopicUpdateScore)
		})

		Convey("When two callers offer different scores concurrently", func() {
			ft := &fakeTransport{}
			p := publisher.New(ft)

			u1 := mustUpdate("m1", 1, 0, 1, now)
			u2 := mustUpdate("m1", 2, 0, 1, now)
			var wg sync.WaitGroup
			wg.Add(2)
			go func() { defer wg.Done(); _, _ = p.Offer(ctx, publisher.IntentLatest, u1) }()
			go func() { defer wg.Done(); _, _ = p.Offer(ctx, publisher.IntentLatest, u2) }()
			wg.Wait()

			Convey("Then both are emitted and the snapshot holds one of them", func() {
				So(len(ft.calls()), ShouldEqual, 2)
				// A repeat of either is suppressed only if it matches the
				// converged snapshot; the other still differs and publishes.
				d1, _ := p.Offer(ctx, publisher.IntentLatest, u1)
				d2, _ := p.Offer(ctx, publisher.IntentLatest, u2)
				So(d1 == publisher.Suppressed || d2 == publisher.Suppressed, ShouldBeTrue)
			})
		})

		Convey("When the snapshot table is bounded", func() {
			ft := &fakeTransport{}
			p := publisher.New(ft, publisher.WithMaxEntries(2))

			_, _ = p.Offer(ctx, publisher.IntentLatest, mustUpdate("m1", 1, 0, 1, now))
			_, _ = p.Offer(ctx, publisher.IntentLatest, mustUpdate("m2", 1, 0, 1, now))
			_, _ = p.Offer(ctx, publisher.IntentLatest, mustUpdate("m3", 1, 0, 1, now))

			So(p.Size(), ShouldEqual, 2)

			Convey("Then an evicted match republishes even when unchanged", func() {
				d, err := p.Offer(ctx, publisher.IntentLatest, mustUpdate("m1", 1, 0, 1, now))
				So(err, ShouldBeNil)
				So(d, ShouldEqual, publisher.Published)
			})
		})

		Convey("When a snapshot is older than the TTL", func() {
			ft := &fakeTransport{}
			p := publisher.New(ft, publisher.WithTTL(10*time.Millisecond))
			u := mustUpdate("m1", 5, 3, 1, now)

			_, _ = p.Offer(ctx, publisher.IntentLatest, u)
			time.Sleep(20 * time.Millisecond)

			d, err := p.Offer(ctx, publisher.IntentLatest, u)
			So(err, ShouldBeNil)
			So(d, ShouldEqual, publisher.Published)
		})

		Convey("When the transport fails transiently", func() {
			ft := &fakeTransport{failures: 2}
			p := publisher.New(ft, publisher.WithRetry(3, time.Millisecond))

			d, err := p.Offer(ctx, publisher.IntentLatest, mustUpdate("m1", 1, 0, 1, now))
			So(err, ShouldBeNil)
			So(d, ShouldEqual, publisher.Published)
			So(len(ft.calls()), ShouldEqual, 1)
		})

		Convey("When the transport stays down past the retry budget", func() {
			ft := &fakeTransport{failures: 100}
			p := publisher.New(ft, publisher.WithRetry(2, time.Millisecond))
			u := mustUpdate("m1", 1, 0, 1, now)

			d, err := p.Offer(ctx, publisher.IntentLatest, u)
			So(errors.Is(err, publisher.ErrEmitFailed), ShouldBeTrue)
			So(d, ShouldEqual, publisher.Published)

			Convey("Then the snapshot is not rolled back", func() {
				// The accepted trade-off: the failed event now suppresses
				// its own retry.
				d, err := p.Offer(ctx, publisher.IntentLatest, u)
				So(err, ShouldBeNil)
				So(d, ShouldEqual, publisher.Suppressed)
			})
		})
	})
}
