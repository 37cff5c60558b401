package wire_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shirlenelss/thomas-cup-kafka/internal/domain/model"
	"github.com/shirlenelss/thomas-cup-kafka/internal/domain/wire"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDecode(t *testing.T) {
	Convey("Given the wire codec", t, func() {
		Convey("When decoding a complete payload", func() {
			data := []byte(`{"id":"u1","matchId":"m1","teamA":"Malaysia","teamB":"Indonesia",` +
				`"teamAScore":11,"teamBScore":7,"gameNumber":1,"matchDateTime":"2026-05-01T10:00:00Z"}`)
			f, err := wire.Decode(data)
			So(err, ShouldBeNil)
			So(f.MatchID, ShouldEqual, "m1")
			So(f.TeamAScore, ShouldEqual, 11)
			So(f.TeamBScore, ShouldEqual, 7)
			So(f.GameNumber, ShouldEqual, 1)
			So(f.ObservedAt.UTC(), ShouldEqual, time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))

			u, err := f.Update()
			So(err, ShouldBeNil)
			So(u.TeamA, ShouldEqual, "Malaysia")
		})

		Convey("When the timestamp is epoch milliseconds", func() {
			data := []byte(`{"matchId":"m1","teamAScore":0,"teamBScore":0,"gameNumber":1,"matchDateTime":1767225600000}`)
			f, err := wire.Decode(data)
			So(err, ShouldBeNil)
			So(f.ObservedAt.UTC(), ShouldEqual, time.UnixMilli(1767225600000).UTC())
		})

		Convey("When the timestamp is absent", func() {
			data := []byte(`{"matchId":"m1","teamAScore":0,"teamBScore":0,"gameNumber":1}`)
			f, err := wire.Decode(data)
			So(err, ShouldBeNil)
			So(f.ObservedAt.IsZero(), ShouldBeTrue)
		})

		Convey("When a required field is missing", func() {
			cases := map[string]string{
				`{"teamAScore":1,"teamBScore":0,"gameNumber":1}`:  "matchId",
				`{"matchId":"m1","teamBScore":0,"gameNumber":1}`:  "teamAScore",
				`{"matchId":"m1","teamAScore":0,"gameNumber":1}`:  "teamBScore",
				`{"matchId":"m1","teamAScore":0,"teamBScore":0}`:  "gameNumber",
			}
			for payload, field := range cases {
				_, err := wire.Decode([]byte(payload))
				So(errors.Is(err, wire.ErrDecode), ShouldBeTrue)
				var fe *wire.FieldError
				So(errors.As(err, &fe), ShouldBeTrue)
				So(fe.Field, ShouldEqual, field)
			}
		})

		Convey("When the timestamp is malformed", func() {
			data := []byte(`{"matchId":"m1","teamAScore":0,"teamBScore":0,"gameNumber":1,"matchDateTime":"yesterday"}`)
			_, err := wire.Decode(data)
			var fe *wire.FieldError
			So(errors.As(err, &fe), ShouldBeTrue)
			So(fe.Field, ShouldEqual, "matchDateTime")
		})

		Convey("When the body is not JSON", func() {
			_, err := wire.Decode([]byte("not json"))
			So(errors.Is(err, wire.ErrDecode), ShouldBeTrue)
		})
	})
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	Convey("Given a validated update", t, func() {
		observed := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
		u, err := model.NewScoreUpdate("u1", "m1", "Malaysia", "Indonesia", 21, 19, 1, "Malaysia", observed)
		So(err, ShouldBeNil)

		Convey("When encoded and decoded it survives intact", func() {
			data, err := wire.Encode(u)
			So(err, ShouldBeNil)

			f, err := wire.Decode(data)
			So(err, ShouldBeNil)
			got, err := f.Update()
			So(err, ShouldBeNil)
			So(got.MatchID, ShouldEqual, u.MatchID)
			So(got.TeamAScore, ShouldEqual, u.TeamAScore)
			So(got.TeamBScore, ShouldEqual, u.TeamBScore)
			So(got.Winner, ShouldEqual, "Malaysia")
			So(got.ObservedAt.Equal(observed), ShouldBeTrue)
		})
	})
}
