package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/gsoultan/binlogsync/internal/syncerr"
)

const (
	connectTimeout = 5 * time.Second
	readTimeout    = 5 * time.Second
	totalTimeout   = 10 * time.Second

	// ThrottleCode is the sentinel reply body code meaning "retry after 60s".
	ThrottleCode = "9019"
)

// Client is a thread-safe, stateless-beyond-its-pool HTTP client for the
// MSS gateway envelope protocol.
type Client struct {
	baseURL string
	source  uint32
	target  uint32
	mode    int32
	sync    bool
	http    *http.Client
}

// Config carries the destination routing defaults shared by every call.
type Config struct {
	BaseURL string
	Source  uint32
	Target  uint32
	Mode    int32
	Sync    bool
}

// NewClient builds a Client with the mandatory connect/read/total timeouts.
func NewClient(cfg Config) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: connectTimeout,
		}).DialContext,
		ResponseHeaderTimeout: readTimeout,
	}
	return &Client{
		baseURL: cfg.BaseURL,
		source:  cfg.Source,
		target:  cfg.Target,
		mode:    cfg.Mode,
		sync:    cfg.Sync,
		http: &http.Client{
			Timeout:   totalTimeout,
			Transport: transport,
		},
	}
}

// InvokeService POSTs a fresh envelope addressed to service with payload and
// returns the raw reply body for the caller to inspect with gjson.
func (c *Client) InvokeService(ctx context.Context, service string, payload []interface{}) (*ServiceReply, *syncerr.SyncError) {
	msg := ServiceMessage{
		Header: MessageHeader{
			MessageID: uuid.New().String(),
			OpCode:    1,
			Timestamp: time.Now().UnixMilli(),
			Destination: Destination{
				Source:  c.source,
				Target:  c.target,
				Service: service,
				Mode:    c.mode,
				Sync:    c.sync,
			},
		},
		Body: RequestBody{Payload: payload},
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return nil, syncerr.AsPermanent(fmt.Errorf("marshal gateway request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, syncerr.AsPermanent(fmt.Errorf("build gateway request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, syncerr.FromError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, syncerr.AsTransient(fmt.Errorf("read gateway reply: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, syncerr.FromError(&syncerr.HTTPStatusError{Code: resp.StatusCode})
	}

	var reply ServiceReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, syncerr.AsPermanent(fmt.Errorf("decode gateway reply: %w", err))
	}
	reply.Raw = raw

	return &reply, nil
}

// IsThrottled reports whether the reply body carries the "code":"9019"
// sentinel, using gjson since the throttle envelope isn't a typed shape.
func IsThrottled(reply *ServiceReply) bool {
	if reply == nil {
		return false
	}
	return gjson.GetBytes(reply.Raw, "body.payload.code").String() == ThrottleCode
}

// Payload extracts body.payload from the raw reply as a gjson.Result, for
// callers that want loosely-typed field access without a second struct.
func Payload(reply *ServiceReply) gjson.Result {
	if reply == nil {
		return gjson.Result{}
	}
	return gjson.GetBytes(reply.Raw, "body.payload")
}
