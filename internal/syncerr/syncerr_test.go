package syncerr

import (
	"context"
	"errors"
	"net"
	"testing"
)

func TestClassifyHTTPStatus(t *testing.T) {
	cases := []struct {
		code int
		want Kind
	}{
		{500, Transient},
		{503, Transient},
		{400, Permanent},
		{404, Permanent},
	}
	for _, c := range cases {
		got := Classify(&HTTPStatusError{Code: c.code})
		if got != c.want {
			t.Errorf("Classify(HTTPStatusError{%d}) = %v, want %v", c.code, got, c.want)
		}
	}
}

func TestClassifyDeadlineExceeded(t *testing.T) {
	if got := Classify(context.DeadlineExceeded); got != Transient {
		t.Errorf("Classify(DeadlineExceeded) = %v, want Transient", got)
	}
}

func TestClassifyNetOpError(t *testing.T) {
	err := &net.OpError{Op: "dial", Err: errors.New("connection refused")}
	if got := Classify(err); got != Transient {
		t.Errorf("Classify(net.OpError) = %v, want Transient", got)
	}
}

func TestClassifyDefaultPermanent(t *testing.T) {
	if got := Classify(errors.New("missing field cid")); got != Permanent {
		t.Errorf("Classify(plain error) = %v, want Permanent", got)
	}
}

func TestAsTransientAndPermanentNil(t *testing.T) {
	if AsTransient(nil) != nil {
		t.Error("AsTransient(nil) should be nil")
	}
	if AsPermanent(nil) != nil {
		t.Error("AsPermanent(nil) should be nil")
	}
}

func TestSyncErrorUnwrap(t *testing.T) {
	base := errors.New("boom")
	se := AsTransient(base)
	if !errors.Is(se, base) {
		t.Error("SyncError should unwrap to base error")
	}
}
