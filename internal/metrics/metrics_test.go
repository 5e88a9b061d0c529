package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutCounter(t *testing.T) {
	m := New()
	m.Checkout("verify", "ORDER_COMMITTED")
	m.Checkout("verify", "ORDER_COMMITTED")
	m.Checkout("begin", "FAILED_GATEWAY")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CheckoutOutcomes.WithLabelValues("verify", "ORDER_COMMITTED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckoutOutcomes.WithLabelValues("begin", "FAILED_GATEWAY")))

	var none *Metrics
	assert.NotPanics(t, func() { none.Checkout("begin", "x") })
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/orders/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders/42", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("/api/orders/:id", "404")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `medicart_http_requests_total{route="/api/orders/:id",status="404"} 1`)
}
