package hiscores_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/elonfeng/rankradar/pkg/hiscores"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClientRankings(t *testing.T) {
	Convey("Given a hiscores API", t, func() {
		Convey("When the upstream responds with a ranking page", func() {
			var gotQuery map[string]string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotQuery = map[string]string{
					"table":    r.URL.Query().Get("table"),
					"category": r.URL.Query().Get("category"),
					"size":     r.URL.Query().Get("size"),
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`[{"name":"A","score":"1,000","rank":"1"}]`))
			}))
			defer srv.Close()

			client := hiscores.NewClient(srv.URL, 0, 0, 50, time.Second)
			rows, err := client.Rankings(context.Background())

			Convey("Then rows are decoded and query params carried", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 1)
				So(rows[0].Name, ShouldEqual, "A")
				So(rows[0].Score, ShouldEqual, "1,000")
				So(gotQuery["table"], ShouldEqual, "0")
				So(gotQuery["category"], ShouldEqual, "0")
				So(gotQuery["size"], ShouldEqual, "50")
			})
		})

		Convey("When the upstream responds with a non-2xx status", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`[]`))
			}))
			defer srv.Close()

			client := hiscores.NewClient(srv.URL, 0, 0, 50, time.Second)
			rows, err := client.Rankings(context.Background())

			Convey("Then the status is not an error, the body is authoritative", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 0)
			})
		})

		Convey("When the upstream body is not a JSON array", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<html>maintenance</html>`))
			}))
			defer srv.Close()

			client := hiscores.NewClient(srv.URL, 0, 0, 50, time.Second)
			_, err := client.Rankings(context.Background())

			Convey("Then the fetch fails", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When the upstream is unreachable", func() {
			client := hiscores.NewClient("http://127.0.0.1:1", 0, 0, 50, 200*time.Millisecond)
			_, err := client.Rankings(context.Background())

			Convey("Then a transport error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
