// Package feed paginates change logs out of the gateway for one run's
// window, grounded on binlog_sync.rs's Page/ResultSet pagination loop.
package feed

import (
	"context"

	"github.com/gsoultan/binlogsync/internal/gateway"
	"github.com/gsoultan/binlogsync/internal/model"
	"github.com/gsoultan/binlogsync/internal/syncerr"
)

// Window is the [startMs, endMs] range a run pulls change logs for.
type Window struct {
	StartMs int64
	EndMs   int64
}

// ComputeWindow derives the next window from the previous watermark: a 30s
// backward skew tolerates gateway clock drift, and a 5 minute forward cap
// bounds single-run work — both from spec.md §4.5, kept as tunables with
// these defaults per the Open Questions note in spec.md §9.
func ComputeWindow(prevMs, nowMs int64, backSkewMs, forwardCapMs int64) Window {
	end := prevMs + forwardCapMs
	if end > nowMs {
		end = nowMs
	}
	return Window{StartMs: prevMs - backSkewMs, EndMs: end}
}

// DefaultBackSkewMs is the 30s backward skew from spec.md §4.5.
const DefaultBackSkewMs = 30_000

// DefaultForwardCapMs is the 5 minute forward cap from spec.md §4.5.
const DefaultForwardCapMs = 300_000

// Feed pages change logs of one kind out of the gateway.
type Feed struct {
	client *gateway.Client
}

// New builds a Feed over client.
func New(client *gateway.Client) *Feed {
	return &Feed{client: client}
}

// ForEach pages kind's change logs within window, invoking fn with each
// page's items until the gateway reports no next page or returns no items.
func (f *Feed) ForEach(ctx context.Context, kind model.DataType, window Window, fn func([]model.ChangeLog) error) *syncerr.SyncError {
	page := model.Page{CurrentPage: 1, TotalPage: 1}

	for {
		rs, serr := f.client.BinlogFind(ctx, kind, window.StartMs, window.EndMs, page)
		if serr != nil {
			return serr
		}
		if len(rs.Items) == 0 {
			return nil
		}
		if err := fn(rs.Items); err != nil {
			return syncerr.FromError(err)
		}
		if !rs.Page.HasNextPage() {
			return nil
		}
		page = rs.Page.Next()
	}
}
