package obs

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()
}

func TestObserveIAMRequest(t *testing.T) {
	Init()

	IAMRequestStarted()
	ObserveIAMRequest("get_user", "200", 5*time.Millisecond)

	if got := testutil.ToFloat64(iamRequestsTotal.WithLabelValues("get_user", "200")); got < 1 {
		t.Fatalf("expected at least one observation, got %v", got)
	}
	if got := testutil.ToFloat64(iamInFlight); got != 0 {
		t.Fatalf("in-flight gauge not balanced: %v", got)
	}
}
