package swagger_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/shirlenelss/thomas-cup-kafka/internal/adapters/http/swagger"
)

func TestRegister(t *testing.T) {
	Convey("Given the docs routes on a mux", t, func() {
		mux := http.NewServeMux()
		swagger.Register(context.Background(), mux)

		Convey("The ReDoc page is served", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api-docs", nil))

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
			So(rec.Body.String(), ShouldContainSubstring, "redoc")
		})

		Convey("The OpenAPI spec is served", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Content-Type"), ShouldContainSubstring, "yaml")
			body := rec.Body.String()
			So(body, ShouldContainSubstring, "openapi:")
			for _, path := range []string{"/api/match-results", "/api/new-game", "/api/update-score", "/api/matches/{matchId}", "/events"} {
				So(body, ShouldContainSubstring, path)
			}
		})

		Convey("Registering on a nil mux panics", func() {
			So(func() { swagger.Register(context.Background(), nil) }, ShouldPanic)
		})

		Convey("The embedded spec is not empty", func() {
			So(len(swagger.OpenAPI), ShouldBeGreaterThan, 0)
			So(strings.Contains(string(swagger.OpenAPI), "ScoreUpdate"), ShouldBeTrue)
		})
	})
}
