package metrics

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(ddlStatements.WithLabelValues("error"))
	DDL(errors.New("boom"))
	DDL(nil)
	assert.Equal(t, before+1, testutil.ToFloat64(ddlStatements.WithLabelValues("error")))

	SchemaMutation("create_table", nil)
	assert.GreaterOrEqual(t, testutil.ToFloat64(schemaMutations.WithLabelValues("create_table", "ok")), 1.0)

	ObserveRequest("GET", "", 404, time.Millisecond)
	assert.GreaterOrEqual(t, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "unmatched", "404")), 1.0)
}

func TestHandlerExposesMetrics(t *testing.T) {
	DDL(nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "tablekit_ddl_statements_total")
}
