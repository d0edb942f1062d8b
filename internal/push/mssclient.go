package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const (
	maxPushAttempts = 5
	preSleep        = 20 * time.Millisecond
	throttleSleep   = 60 * time.Second
	throttleCode    = "9019"
)

// MSSClient posts wrapped push payloads to the MSS HR gateway, retrying
// on the "rest required" throttle sentinel. Grounded on
// utils/mss_client.rs::psn_dos_push.
type MSSClient struct {
	appURL string
	appID  string
	appKey string
	http   *http.Client

	ReplyLog *ReplyLog
	Parser   *PushResultParser
}

// NewMSSClient builds an MSSClient posting to appURL with the given app
// credentials.
func NewMSSClient(appURL, appID, appKey string, replyLog *ReplyLog, parser *PushResultParser) *MSSClient {
	return &MSSClient{
		appURL:   appURL,
		appID:    appID,
		appKey:   appKey,
		http:     &http.Client{Timeout: 30 * time.Second},
		ReplyLog: replyLog,
		Parser:   parser,
	}
}

// Push wraps payload under keyName (e.g. "classData": [payload]) and POSTs
// it, retrying up to maxPushAttempts times whenever the reply signals the
// 9019 throttle code. It returns the raw response body on a non-throttled
// response — the caller (ExecutePushTask) still needs to inspect it via
// PushResultParser to decide success/failure.
func (c *MSSClient) Push(ctx context.Context, keyName string, payload interface{}) ([]byte, error) {
	envelope := map[string]interface{}{keyName: []interface{}{payload}}
	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("marshal push envelope: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxPushAttempts; attempt++ {
		time.Sleep(preSleep)

		respBody, status, err := c.doPost(ctx, body)
		if err != nil {
			lastErr = err
			c.record(string(body), "ERROR: "+err.Error())
			return nil, err
		}

		if status >= 200 && status < 300 {
			if isThrottled(respBody) {
				c.record(string(body), string(respBody))
				time.Sleep(throttleSleep)
				continue
			}
			c.record(string(body), string(respBody))
			return respBody, nil
		}

		lastErr = fmt.Errorf("mss push failed with status %d: %s", status, string(respBody))
		c.record(string(body), lastErr.Error())
		return nil, lastErr
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("all %d attempts throttled for key %s", maxPushAttempts, keyName)
	}
	return nil, lastErr
}

func (c *MSSClient) doPost(ctx context.Context, body []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.appURL, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("X-APP-ID", c.appID)
	req.Header.Set("X-APP-KEY", c.appKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("send request to %s: %w", c.appURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response body from %s: %w", c.appURL, err)
	}
	return respBody, resp.StatusCode, nil
}

func (c *MSSClient) record(sent, reply string) {
	if c.ReplyLog == nil {
		return
	}
	_ = c.ReplyLog.Record(context.Background(), sent, reply)
}

// isThrottled mirrors have_rest: an empty "{}" body is never throttled;
// otherwise a top-level "code" == "9019" string means retry after a cooldown.
func isThrottled(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || string(trimmed) == "{}" {
		return false
	}
	code := gjson.GetBytes(body, "code")
	return code.Exists() && code.String() == throttleCode
}

// newMessageID generates a fresh reply-log identifier, matching the
// original's Uuid::new_v4 dashless id.
func newMessageID() string {
	id := uuid.New().String()
	out := make([]byte, 0, len(id))
	for _, r := range id {
		if r != '-' {
			out = append(out, byte(r))
		}
	}
	return string(out)
}
