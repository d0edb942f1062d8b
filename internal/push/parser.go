package push

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const successCode = "200"

// requestKey maps one envelope key to the push-result columns it feeds,
// matching push_result_parser.rs's REQUEST_KEYS/ERROR_KEYS tables.
type requestKey struct {
	envelopeKey string
	dataType    int
	idField     string
	column      string // "train_id" | "course_id" | "user_id"
}

var requestKeys = []requestKey{
	{"classData", 1, "trainingId", "train_id"},
	{"lecturerData", 2, "course_id", "course_id"},
	{"psnTrainingData", 3, "userId", "user_id"},
	{"psnArchiveData", 4, "userId", "user_id"},
}

// pushResult mirrors MssPushResult, recorded to mss_push_result.
type pushResult struct {
	id        string
	pushTime  time.Time
	trainID   string
	courseID  string
	userID    string
	dataType  int
	errorMsg  string
	errorCode string
}

// PushResultParser inspects an MSS reply against the request that produced
// it and records the outcome, grounded on push_result_parser.rs's Parse.
type PushResultParser struct {
	db *sql.DB
}

// NewPushResultParser builds a parser recording results via db.
func NewPushResultParser(db *sql.DB) *PushResultParser {
	return &PushResultParser{db: db}
}

// Parse inspects reply against the envelope that was sent (keyName +
// payload) and returns an error describing the failure reason when the
// push did not succeed (descCode != "200"), recording the outcome either
// way.
func (p *PushResultParser) Parse(ctx context.Context, keyName string, payload interface{}, reply []byte) (pushResult, error) {
	result := pushResult{id: uuid.New().String(), pushTime: time.Now()}

	if !gjson.ValidBytes(reply) {
		result.errorCode = "500"
		result.errorMsg = fmt.Sprintf("failed to parse MSS reply as JSON: %s", string(reply))
		p.record(ctx, result)
		return result, fmt.Errorf("%s", result.errorMsg)
	}

	parsed := gjson.ParseBytes(reply)
	result.errorCode = parsed.Get("descCode").String()

	requestJSON, err := json.Marshal(map[string]interface{}{keyName: []interface{}{payload}})
	if err != nil {
		result.errorMsg = fmt.Sprintf("failed to marshal request for result extraction: %v", err)
		p.record(ctx, result)
		return result, fmt.Errorf("%s", result.errorMsg)
	}
	extractRequestInfo(gjson.ParseBytes(requestJSON), &result)

	if result.errorCode == successCode {
		p.record(ctx, result)
		return result, nil
	}

	if errMsg := extractFailure(parsed, &result); errMsg != "" {
		result.errorMsg = errMsg
	}
	p.record(ctx, result)

	if result.errorMsg != "" {
		return result, fmt.Errorf("%s", result.errorMsg)
	}
	return result, fmt.Errorf("push failed with code: %s", orUnknown(result.errorCode))
}

func orUnknown(s string) string {
	if s == "" {
		return "UNKNOWN"
	}
	return s
}

func extractRequestInfo(data gjson.Result, result *pushResult) {
	for _, rk := range requestKeys {
		arr := data.Get(rk.envelopeKey)
		if !arr.IsArray() || len(arr.Array()) == 0 {
			continue
		}
		first := arr.Array()[0]
		id := first.Get(rk.idField)
		if !id.Exists() {
			continue
		}
		result.dataType = rk.dataType
		switch rk.column {
		case "train_id":
			result.trainID = id.String()
		case "course_id":
			result.courseID = id.String()
		case "user_id":
			result.userID = id.String()
		}
	}
}

// extractFailure mirrors handle_failure: the reply's "data" field is
// itself a JSON string keyed the same way as the request, carrying
// errormsg/errorcode per item.
func extractFailure(reply gjson.Result, result *pushResult) string {
	raw := reply.Get("data")
	if !raw.Exists() {
		return fmt.Sprintf("missing 'data' field in result JSON: %s", reply.Raw)
	}
	if !gjson.Valid(raw.String()) {
		return fmt.Sprintf("failed to parse 'data' field as JSON: %s", raw.String())
	}
	errData := gjson.Parse(raw.String())

	result.trainID, result.courseID, result.userID, result.dataType = "", "", "", 0

	for _, rk := range requestKeys {
		arr := errData.Get(rk.envelopeKey)
		if !arr.IsArray() || len(arr.Array()) == 0 {
			continue
		}
		item := arr.Array()[0]
		result.dataType = rk.dataType

		if msg := item.Get("errormsg"); msg.Exists() {
			return msg.String()
		}
	}
	return ""
}

func (p *PushResultParser) record(ctx context.Context, r pushResult) {
	if p.db == nil {
		return
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO mss_push_result (id, push_time, train_id, course_id, user_id, type, error_msg, error_code)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.id, r.pushTime, nullable(r.trainID), nullable(r.courseID), nullable(r.userID), r.dataType, nullable(r.errorMsg), nullable(r.errorCode),
	)
	if err != nil {
		// Recording is best-effort bookkeeping; a DB hiccup here must not
		// mask the real push outcome already being returned to the caller.
		return
	}
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
