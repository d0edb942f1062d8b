package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLogsProcessedIncrementsPerKindOutcome(t *testing.T) {
	LogsProcessed.WithLabelValues("org", "resolved").Add(3)

	got := testutil.ToFloat64(LogsProcessed.WithLabelValues("org", "resolved"))
	if got != 3 {
		t.Errorf("LogsProcessed{org,resolved} = %v, want 3", got)
	}
}

func TestPushAttemptsTracksResultLabel(t *testing.T) {
	PushAttempts.WithLabelValues("class", "success").Inc()
	PushAttempts.WithLabelValues("class", "rejected").Inc()
	PushAttempts.WithLabelValues("class", "rejected").Inc()

	if got := testutil.ToFloat64(PushAttempts.WithLabelValues("class", "success")); got != 1 {
		t.Errorf("PushAttempts{class,success} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(PushAttempts.WithLabelValues("class", "rejected")); got != 2 {
		t.Errorf("PushAttempts{class,rejected} = %v, want 2", got)
	}
}

func TestWatermarkLagSecondsIsSettable(t *testing.T) {
	WatermarkLagSeconds.Set(42)

	if got := testutil.ToFloat64(WatermarkLagSeconds); got != 42 {
		t.Errorf("WatermarkLagSeconds = %v, want 42", got)
	}
}

func TestLockAcquireFailuresIncrementsPerKey(t *testing.T) {
	LockAcquireFailures.WithLabelValues("binlogsync:run").Inc()

	if got := testutil.ToFloat64(LockAcquireFailures.WithLabelValues("binlogsync:run")); got < 1 {
		t.Errorf("LockAcquireFailures{binlogsync:run} = %v, want >= 1", got)
	}
}
