package rules_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/shirlenelss/thomas-cup-kafka/internal/domain/rules"
	. "github.com/smartystreets/goconvey/convey"
)

// legalByReference is an independent predicate used to cross-check Validate.
func legalByReference(gameNumber, a, b int) bool {
	if gameNumber < 1 || gameNumber > 3 {
		return false
	}
	if a < 0 || b < 0 {
		return false
	}
	if a > 30 || b > 30 {
		return false
	}
	ceiling := 21
	if gameNumber == 3 {
		ceiling = 15
	}
	if a > ceiling || b > ceiling {
		return a >= ceiling-1 && b >= ceiling-1
	}
	return true
}

func TestValidate(t *testing.T) {
	Convey("Given the score validator", t, func() {
		Convey("When validating regular in-progress scores", func() {
			So(rules.Validate(1, 0, 0), ShouldBeNil)
			So(rules.Validate(2, 21, 19), ShouldBeNil)
			So(rules.Validate(3, 15, 13), ShouldBeNil)
			So(rules.Validate(1, 11, 7), ShouldBeNil)
		})

		Convey("When the game number is out of range", func() {
			So(errors.Is(rules.Validate(0, 1, 1), rules.ErrInvalidGameNumber), ShouldBeTrue)
			So(errors.Is(rules.Validate(4, 1, 1), rules.ErrInvalidGameNumber), ShouldBeTrue)
			So(errors.Is(rules.Validate(-1, 1, 1), rules.ErrInvalidGameNumber), ShouldBeTrue)
		})

		Convey("When a score is negative", func() {
			So(errors.Is(rules.Validate(1, -1, 0), rules.ErrNegativeScore), ShouldBeTrue)
			So(errors.Is(rules.Validate(2, 0, -5), rules.ErrNegativeScore), ShouldBeTrue)
		})

		Convey("When a score exceeds the absolute cap", func() {
			So(errors.Is(rules.Validate(1, 31, 0), rules.ErrScoreExceedsCap), ShouldBeTrue)
			So(errors.Is(rules.Validate(3, 14, 99), rules.ErrScoreExceedsCap), ShouldBeTrue)
		})

		Convey("When a score passes the ceiling without a deuce", func() {
			// 22-5 in game 1 cannot happen: the game would have ended at 21-5.
			So(errors.Is(rules.Validate(1, 22, 5), rules.ErrIllegalDeuceState), ShouldBeTrue)
			So(errors.Is(rules.Validate(3, 16, 3), rules.ErrIllegalDeuceState), ShouldBeTrue)
			So(errors.Is(rules.Validate(1, 30, 0), rules.ErrIllegalDeuceState), ShouldBeTrue)
		})

		Convey("When the game is in a legal deuce extension", func() {
			So(rules.Validate(1, 22, 20), ShouldBeNil)
			So(rules.Validate(1, 30, 29), ShouldBeNil)
			So(rules.Validate(2, 25, 24), ShouldBeNil)
			So(rules.Validate(3, 17, 15), ShouldBeNil)
			So(rules.Validate(3, 14, 16), ShouldBeNil)
		})

		Convey("When checking randomized triples against the reference predicate", func() {
			rng := rand.New(rand.NewSource(1))
			for i := 0; i < 5000; i++ {
				gameNumber := rng.Intn(5)      // 0..4 to cover illegal game numbers
				a := rng.Intn(33) - 1          // -1..31
				b := rng.Intn(33) - 1          // -1..31
				err := rules.Validate(gameNumber, a, b)
				So(err == nil, ShouldEqual, legalByReference(gameNumber, a, b))
			}
		})
	})
}

func TestCeiling(t *testing.T) {
	Convey("Given the per-game ceilings", t, func() {
		So(rules.Ceiling(1), ShouldEqual, 21)
		So(rules.Ceiling(2), ShouldEqual, 21)
		So(rules.Ceiling(3), ShouldEqual, 15)
	})
}

func TestCompletion(t *testing.T) {
	Convey("Given the game completion detector", t, func() {
		Convey("When a side wins at the ceiling with margin", func() {
			So(rules.IsComplete(1, 21, 19), ShouldBeTrue)
			winner, ok := rules.Winner(1, 21, 19)
			So(ok, ShouldBeTrue)
			So(winner, ShouldEqual, rules.SideTeamA)
		})

		Convey("When the decider ends at fifteen", func() {
			So(rules.IsComplete(3, 15, 13), ShouldBeTrue)
			winner, ok := rules.Winner(3, 15, 13)
			So(ok, ShouldBeTrue)
			So(winner, ShouldEqual, rules.SideTeamA)
		})

		Convey("When a side reaches the absolute cap", func() {
			// 30 wins regardless of margin.
			So(rules.IsComplete(1, 29, 30), ShouldBeTrue)
			winner, ok := rules.Winner(1, 29, 30)
			So(ok, ShouldBeTrue)
			So(winner, ShouldEqual, rules.SideTeamB)
		})

		Convey("When play continues past the ceiling without margin", func() {
			So(rules.IsComplete(1, 22, 21), ShouldBeFalse)
			_, ok := rules.Winner(1, 22, 21)
			So(ok, ShouldBeFalse)
		})

		Convey("When the game is still in progress", func() {
			So(rules.IsComplete(1, 20, 19), ShouldBeFalse)
			So(rules.IsComplete(3, 14, 14), ShouldBeFalse)
			_, ok := rules.Winner(2, 10, 10)
			So(ok, ShouldBeFalse)
		})
	})
}
