package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordTurn(t *testing.T) {
	before := testutil.ToFloat64(TurnsTotal.WithLabelValues("select_genre", "advanced"))
	RecordTurn("select_genre", "advanced", 15*time.Millisecond)
	after := testutil.ToFloat64(TurnsTotal.WithLabelValues("select_genre", "advanced"))
	assert.Equal(t, before+1, after)
}

func TestRecordDependencyRequest(t *testing.T) {
	before := testutil.ToFloat64(DependencyRequestsTotal.WithLabelValues("friends", "error"))
	RecordDependencyRequest("friends", "error")
	assert.Equal(t, before+1, testutil.ToFloat64(DependencyRequestsTotal.WithLabelValues("friends", "error")))
}

func TestSetBreakerState(t *testing.T) {
	SetBreakerState("data-service-test", 2)
	assert.Equal(t, float64(2), testutil.ToFloat64(BreakerState.WithLabelValues("data-service-test")))
}

func TestStatusLabel(t *testing.T) {
	tests := map[int]string{200: "2xx", 302: "3xx", 401: "4xx", 429: "4xx", 503: "5xx"}
	for status, want := range tests {
		assert.Equal(t, want, statusLabel(status))
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/chat", "4xx"))
	RecordHTTPRequest("/chat", 401)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/chat", "4xx")))
}
