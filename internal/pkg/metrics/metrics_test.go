package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.MessageSent("user")
		m.Delivered(3)
		m.ReadReceipt(nil)
		m.SubscriberOpened()
		m.SubscriberClosed()
		m.ApprovalWait("approved")
	})
}

func TestHandlerExposesCounters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	m.MessageSent("zone")
	m.MessageSent("zone")
	m.ReadReceipt(errors.New("denied"))
	m.Delivered(2)

	r := gin.New()
	r.Use(m.HandlerFunc())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `driveops_messaging_messages_sent_total{scope="zone"} 2`)
	assert.Contains(t, text, `driveops_messaging_read_receipts_total{result="error"} 1`)
	assert.Contains(t, text, `driveops_messaging_realtime_deliveries_total 2`)
	assert.Contains(t, text, `driveops_http_requests_total{method="GET",route="/ping",status="200"} 1`)
}
