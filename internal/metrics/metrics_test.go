package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/v1/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/items/42", http.NoBody))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/items/{id}", "404"))
	assert.GreaterOrEqual(t, got, 1.0)
}

func TestRegisterRankingMetrics_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		RegisterRankingMetrics()
		RegisterRankingMetrics()
	})
	before := testutil.ToFloat64(RankingsTotal.WithLabelValues("ok"))
	RankingsTotal.WithLabelValues("ok").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(RankingsTotal.WithLabelValues("ok")))
}
