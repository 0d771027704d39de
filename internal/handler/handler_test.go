package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/haproxy-status/internal/handler"
	"github.com/angeloszaimis/haproxy-status/internal/verdict"
)

type stubSource struct {
	v verdict.Verdict
}

func (s *stubSource) Status(context.Context) verdict.Verdict { return s.v }
func (s *stubSource) Ping() string                           { return "pong\n" }

var _ = Describe("StatusHandler", func() {
	var (
		source *stubSource
		h      *handler.StatusHandler
		log    *slog.Logger
	)

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
		source = &stubSource{v: verdict.Verdict{Status: verdict.StatusUp, Reason: "1 backend UP", TTL: 12}}
		h = handler.NewStatusHandler(log, source, false)
	})

	Describe("Status", func() {
		It("should serve the verdict as JSON", func() {
			w := httptest.NewRecorder()
			h.Status(w, httptest.NewRequest(http.MethodGet, "/status", nil))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(Equal("application/json"))

			var body map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			Expect(body).To(Equal(map[string]any{
				"status": "STATUS_UP",
				"reason": "1 backend UP",
				"ttl":    float64(12),
			}))
		})

		Context("when admin down", func() {
			BeforeEach(func() {
				source.v = verdict.Verdict{Status: verdict.StatusAdminDown, Reason: "1 backend UP"}
			})

			It("should still serve JSON by default", func() {
				w := httptest.NewRecorder()
				h.Status(w, httptest.NewRequest(http.MethodGet, "/status", nil))
				Expect(w.Code).To(Equal(http.StatusOK))
				Expect(w.Body.String()).To(ContainSubstring("STATUS_ADMIN_DOWN"))
			})

			It("should answer 404 when configured to", func() {
				h = handler.NewStatusHandler(log, source, true)
				w := httptest.NewRecorder()
				h.Status(w, httptest.NewRequest(http.MethodGet, "/status", nil))
				Expect(w.Code).To(Equal(http.StatusNotFound))
			})
		})
	})

	Describe("Ping", func() {
		It("should answer pong", func() {
			w := httptest.NewRecorder()
			h.Ping(w, httptest.NewRequest(http.MethodPost, "/ping", nil))
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(Equal("pong\n"))
		})
	})
})
