package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pagevault/library/internal/db"
	"github.com/pagevault/library/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	total int64
	err   error
}

func (f fakeCatalog) CountBooks(ctx context.Context) (int64, error) { return f.total, f.err }

type fakeLedger struct {
	counts map[db.RentalStatus]int64
}

func (f fakeLedger) CountByStatus(ctx context.Context) (map[db.RentalStatus]int64, error) {
	return f.counts, nil
}

func TestStoreCollector(t *testing.T) {
	ledger := fakeLedger{counts: map[db.RentalStatus]int64{db.RentalPending: 2, db.RentalAccepted: 1, db.RentalRejected: 0}}
	m := New(fakeCatalog{total: 7}, ledger, logger.NewLogger("test", "info"))

	expected := `
# HELP library_books Books in the catalog.
# TYPE library_books gauge
library_books 7
# HELP library_rent_requests Rent requests by review status.
# TYPE library_rent_requests gauge
library_rent_requests{status="accepted"} 1
library_rent_requests{status="pending"} 2
library_rent_requests{status="rejected"} 0
`
	err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "library_books", "library_rent_requests")
	assert.NoError(t, err)
}

func TestStoreCollectorSkipsFailedCounts(t *testing.T) {
	m := New(fakeCatalog{err: errors.New("db down")}, fakeLedger{counts: map[db.RentalStatus]int64{}}, logger.NewLogger("test", "info"))

	n, err := testutil.GatherAndCount(m.Registry(), "library_books")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(fakeCatalog{}, fakeLedger{counts: map[db.RentalStatus]int64{}}, logger.NewLogger("test", "info"))

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/book/AllBooks", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	for i := 0; i < 3; i++ {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/book/AllBooks", nil))
	}
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/book/AllBooks", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "unmatched", "404")))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "library_http_requests_total")
}
