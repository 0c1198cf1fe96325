package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestStatusCategory(t *testing.T) {
	assert.Equal(t, "2xx", statusCategory(http.StatusOK))
	assert.Equal(t, "3xx", statusCategory(http.StatusFound))
	assert.Equal(t, "4xx", statusCategory(http.StatusNotFound))
	assert.Equal(t, "5xx", statusCategory(http.StatusBadGateway))
}

func TestMetricsMiddleware(t *testing.T) {
	e := echo.New()
	e.Use(MetricsMiddleware())
	e.GET("/metrics-test/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusTeapot)
	})

	before := testutil.ToFloat64(StatusCategoryCounter.WithLabelValues("4xx", http.MethodGet, "/metrics-test/:id"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics-test/7", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	after := testutil.ToFloat64(StatusCategoryCounter.WithLabelValues("4xx", http.MethodGet, "/metrics-test/:id"))
	assert.Equal(t, before+1, after)
	assert.Equal(t, float64(1), testutil.ToFloat64(HTTPRequestCounter.WithLabelValues("/metrics-test/:id", http.MethodGet, "418")))
}

func TestRecorders(t *testing.T) {
	before := testutil.ToFloat64(ItemsDeletedCounter.WithLabelValues("file"))
	RecordDeleted("file", 3)
	assert.Equal(t, before+3, testutil.ToFloat64(ItemsDeletedCounter.WithLabelValues("file")))

	RecordRows("csv", 10, 2)
	assert.GreaterOrEqual(t, testutil.ToFloat64(RowsDroppedCounter.WithLabelValues("csv")), float64(2))

	RecordUpload("csv", "success", time.Now())
	assert.GreaterOrEqual(t, testutil.ToFloat64(UploadCounter.WithLabelValues("csv", "success")), float64(1))

	UpdateAgents(4)
	assert.Equal(t, float64(4), testutil.ToFloat64(AgentsGauge))

	TrackDBOperation("query")(time.Now())
}
