package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/pitchtag/internal/adapters/http/api"
	service "github.com/okian/pitchtag/internal/app"
	"github.com/okian/pitchtag/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
}

type harness struct {
	svc    *service.Service
	router chi.Router
}

func newHarness(opts ...service.Option) *harness {
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	r := chi.NewRouter()
	api.NewServer(svc, svc).Register(context.Background(), r)
	return &harness{svc: svc, router: r}
}

func (h *harness) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) createSession() string {
	w := h.do(http.MethodPost, "/sessions", "")
	So(w.Code, ShouldEqual, http.StatusCreated)
	var resp struct {
		ID string `json:"id"`
	}
	So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
	return resp.ID
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var m map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &m), ShouldBeNil)
	return m
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		h := newHarness()
		defer h.svc.Stop()

		Convey("Then health should serve Prometheus metrics", func() {
			w := h.do(http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "pitchtag_tagger_")
		})

		Convey("Then stats should report the service state", func() {
			w := h.do(http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["started"], ShouldEqual, true)
		})

		Convey("Then unknown routes should answer JSON 404", func() {
			w := h.do(http.MethodGet, "/unknown", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decode(w)["code"], ShouldEqual, "not_found")
		})

		Convey("Then a wrong method should answer 405", func() {
			w := h.do(http.MethodPut, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("Then a nil router should panic", func() {
			So(func() { api.NewServer(h.svc, h.svc).Register(context.Background(), nil) }, ShouldPanic)
		})
	})
}

func TestPitchHandler(t *testing.T) {
	Convey("Given the pitch endpoint", t, func() {
		h := newHarness()
		defer h.svc.Stop()

		Convey("When requested with defaults", func() {
			w := h.do(http.MethodGet, "/pitch", "")
			m := decode(w)

			Convey("Then it should return the default canvas with arcs", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(m["width"], ShouldEqual, 840.0)
				So(m["height"], ShouldEqual, 544.0)
				So(m["boxes"], ShouldHaveLength, 5)
				So(m["arcs"], ShouldHaveLength, 2)
			})
		})

		Convey("When arcs are disabled and the size overridden", func() {
			w := h.do(http.MethodGet, "/pitch?width=420&height=272&arcs=false", "")
			m := decode(w)

			Convey("Then the diagram should follow the query", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(m["width"], ShouldEqual, 420.0)
				So(m["arcs"], ShouldBeEmpty)
			})
		})

		Convey("When a size is not a positive integer", func() {
			So(h.do(http.MethodGet, "/pitch?width=-3", "").Code, ShouldEqual, http.StatusBadRequest)
			So(h.do(http.MethodGet, "/pitch?height=abc", "").Code, ShouldEqual, http.StatusBadRequest)
			So(h.do(http.MethodGet, "/pitch?arcs=maybe", "").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestSessionsHandler(t *testing.T) {
	Convey("Given a session", t, func() {
		h := newHarness()
		defer h.svc.Stop()
		id := h.createSession()
		base := "/sessions/" + id

		Convey("When fetched", func() {
			w := h.do(http.MethodGet, base, "")
			m := decode(w)

			Convey("Then it should show the fresh state", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(m["id"], ShouldEqual, id)
				So(m["possession"], ShouldEqual, 0.0)
				So(m["rowCount"], ShouldEqual, 0.0)
				form := m["form"].(map[string]any)
				So(form["attackingDirection"], ShouldEqual, "Left to Right")
				So(form["gameSituation"], ShouldEqual, "Open play")
			})
		})

		Convey("When drawing, committing and exporting", func() {
			So(h.do(http.MethodPost, base+"/points", `{"x":80.123,"y":50.456}`).Code, ShouldEqual, http.StatusOK)
			So(h.do(http.MethodPost, base+"/lines", `{"xs":[10,20],"ys":[30,40],"action":"cross"}`).Code, ShouldEqual, http.StatusOK)
			So(h.do(http.MethodPost, base+"/lines", `{"xs":[10],"ys":[30,40]}`).Code, ShouldEqual, http.StatusOK)
			So(h.do(http.MethodPatch, base+"/form", `{"homeTeam":"Ajax","awayTeam":"PSV","shotOutcome":"goal"}`).Code, ShouldEqual, http.StatusOK)

			w := h.do(http.MethodPost, base+"/commit", "")
			m := decode(w)

			Convey("Then the commit should report the batch", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(m["duplicate"], ShouldEqual, false)
				So(m["dropped"], ShouldEqual, 1.0)
				rows := m["rows"].([]any)
				So(rows, ShouldHaveLength, 2)
				first := rows[0].(map[string]any)
				second := rows[1].(map[string]any)
				So(first["action"], ShouldEqual, "cross")
				So(second["action"], ShouldEqual, "shot")
				So(second["xStart"], ShouldEqual, 80.12)
				So(second["shotOutcome"], ShouldEqual, "Goal")
				sess := m["session"].(map[string]any)
				So(sess["possession"], ShouldEqual, 1.0)
				So(sess["points"], ShouldBeEmpty)
			})

			Convey("Then rows should list the table with its columns", func() {
				w := h.do(http.MethodGet, base+"/rows", "")
				rm := decode(w)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(rm["rows"], ShouldHaveLength, 2)
				So(rm["columns"], ShouldHaveLength, 16)
			})

			Convey("Then export should download the CSV", func() {
				w := h.do(http.MethodGet, base+"/export", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "text/csv")
				So(w.Header().Get("Content-Disposition"), ShouldEqual, `attachment; filename="tagger_data_Ajax_PSV.csv"`)
				So(w.Body.String(), ShouldStartWith, ",action,xStart,xEnd,yStart,yEnd,team,possessionNo,indexInPossession")
			})

			Convey("And when cleared", func() {
				w := h.do(http.MethodPost, base+"/clear", "")

				Convey("Then export should be empty", func() {
					So(w.Code, ShouldEqual, http.StatusOK)
					So(decode(w)["possession"], ShouldEqual, 0.0)
					exp := h.do(http.MethodGet, base+"/export", "")
					So(exp.Code, ShouldEqual, http.StatusNoContent)
					So(exp.Body.Len(), ShouldEqual, 0)
				})
			})
		})

		Convey("When a commit is retried with the same Idempotency-Key", func() {
			h.do(http.MethodPost, base+"/points", `{"x":1,"y":2,"action":"duel"}`)
			first := decode(h.do(http.MethodPost, base+"/commit", "", "Idempotency-Key", "abc"))
			second := decode(h.do(http.MethodPost, base+"/commit", "", "Idempotency-Key", "abc"))

			Convey("Then the second should be a no-op", func() {
				So(first["duplicate"], ShouldEqual, false)
				So(second["duplicate"], ShouldEqual, true)
				So(second["rows"], ShouldBeEmpty)
				So(second["session"].(map[string]any)["possession"], ShouldEqual, 1.0)
			})
		})

		Convey("When driving the possession counter", func() {
			h.do(http.MethodPost, base+"/possession/increment", "")
			w := h.do(http.MethodPost, base+"/possession/increment", "")
			So(decode(w)["possession"], ShouldEqual, 2.0)

			w = h.do(http.MethodPost, base+"/possession/reset", "")
			So(decode(w)["possession"], ShouldEqual, 1.0)

			w = h.do(http.MethodPut, base+"/possession", `{"possession":9}`)
			So(decode(w)["possession"], ShouldEqual, 9.0)

			Convey("Then invalid values should be rejected", func() {
				So(h.do(http.MethodPut, base+"/possession", `{"possession":-1}`).Code, ShouldEqual, http.StatusBadRequest)
				So(h.do(http.MethodPut, base+"/possession", `{}`).Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the drawings are discarded", func() {
			h.do(http.MethodPost, base+"/points", `{"x":1,"y":2}`)
			w := h.do(http.MethodDelete, base+"/drawings", "")

			Convey("Then the surfaces should be empty", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["points"], ShouldBeEmpty)
			})
		})

		Convey("When sending bad payloads", func() {
			So(h.do(http.MethodPost, base+"/points", `{"x":1}`).Code, ShouldEqual, http.StatusBadRequest)
			So(h.do(http.MethodPost, base+"/points", `{"x":1,"y":2,"z":3}`).Code, ShouldEqual, http.StatusBadRequest)
			So(h.do(http.MethodPost, base+"/points", `not json`).Code, ShouldEqual, http.StatusBadRequest)
			So(h.do(http.MethodPost, base+"/lines", "").Code, ShouldEqual, http.StatusBadRequest)

			w := h.do(http.MethodPatch, base+"/form", `{"team":"Neutral"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["message"], ShouldContainSubstring, "team")
		})

		Convey("When the session is deleted", func() {
			So(h.do(http.MethodDelete, base, "").Code, ShouldEqual, http.StatusNoContent)

			Convey("Then every session route should answer 404", func() {
				So(h.do(http.MethodGet, base, "").Code, ShouldEqual, http.StatusNotFound)
				So(h.do(http.MethodPost, base+"/commit", "").Code, ShouldEqual, http.StatusNotFound)
				So(h.do(http.MethodGet, base+"/export", "").Code, ShouldEqual, http.StatusNotFound)
				So(h.do(http.MethodDelete, base, "").Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestSessionCapacity(t *testing.T) {
	Convey("Given a server capped at one session", t, func() {
		h := newHarness(service.WithMaxSessions(1))
		defer h.svc.Stop()
		h.createSession()

		Convey("Then another create should answer 503", func() {
			w := h.do(http.MethodPost, "/sessions", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(decode(w)["code"], ShouldEqual, "capacity")
		})
	})
}

func TestRateLimiter(t *testing.T) {
	Convey("Given a limiter allowing a burst of two", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		rl := api.NewRateLimiter(ctx, 0.001, 2)
		handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		call := func(addr string) int {
			req := httptest.NewRequest(http.MethodGet, "/stats", http.NoBody)
			req.RemoteAddr = addr
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			return w.Code
		}

		Convey("Then the third request from one client should be rejected", func() {
			So(call("10.0.0.1:1000"), ShouldEqual, http.StatusNoContent)
			So(call("10.0.0.1:1001"), ShouldEqual, http.StatusNoContent)
			So(call("10.0.0.1:1002"), ShouldEqual, http.StatusTooManyRequests)
		})

		Convey("Then other clients should have their own budget", func() {
			So(call("10.0.0.1:1000"), ShouldEqual, http.StatusNoContent)
			So(call("10.0.0.1:1000"), ShouldEqual, http.StatusNoContent)
			So(call("10.0.0.2:1000"), ShouldEqual, http.StatusNoContent)
		})
	})
}

func TestRecoverPanic(t *testing.T) {
	Convey("Given a panicking handler", t, func() {
		handler := api.RecoverPanic(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))

		Convey("Then it should answer 500", func() {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Header().Get("Connection"), ShouldEqual, "close")
		})
	})
}
