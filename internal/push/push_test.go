package push

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/gsoultan/binlogsync/internal/logging"
)

func TestExecutePushTaskReconcilesSuccessAndFailure(t *testing.T) {
	db := openClassTestDB(t)
	_, err := db.Exec(`INSERT INTO NU_trainSourceData_ztk (TRAINID, training_name, hitdate) VALUES
		('t-ok', 'Safety 101', '2026-07-30'),
		('t-bad', 'Safety 102', '2026-07-30')`)
	if err != nil {
		t.Fatalf("seed rows: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var envelope map[string][]map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		row := envelope["classData"][0]
		w.Header().Set("Content-Type", "application/json")
		if row["id"] == "t-bad" {
			_, _ = w.Write([]byte(`{"descCode":"500","data":"{\"classData\":[{\"errormsg\":\"rejected\"}]}"}`))
			return
		}
		_, _ = w.Write([]byte(`{"descCode":"200"}`))
	}))
	defer srv.Close()

	mss := NewMSSClient(srv.URL, "app-id", "app-key", nil, NewPushResultParser(nil))
	task := &BaseTask{
		DB:   db,
		MSS:  mss,
		Log:  logging.New("json", "error"),
		HitDate: "2026-07-30",
	}

	if err := ExecutePushTask(context.Background(), task, ClassPushTask{}); err != nil {
		t.Fatalf("ExecutePushTask: %v", err)
	}

	var okStatus, badStatus sql.NullString
	if err := db.QueryRow(`SELECT trainNotifyMss FROM NU_trainSourceData_ztk WHERE TRAINID = 't-ok'`).Scan(&okStatus); err != nil {
		t.Fatalf("query t-ok status: %v", err)
	}
	if okStatus.String != "1" {
		t.Errorf("t-ok trainNotifyMss = %q, want \"1\"", okStatus.String)
	}
	if err := db.QueryRow(`SELECT trainNotifyMss FROM NU_trainSourceData_ztk WHERE TRAINID = 't-bad'`).Scan(&badStatus); err != nil {
		t.Fatalf("query t-bad status: %v", err)
	}
	if badStatus.String != "2" {
		t.Errorf("t-bad trainNotifyMss = %q, want \"2\"", badStatus.String)
	}
}

func TestExecutePushTaskNoRowsIsNoop(t *testing.T) {
	db := openClassTestDB(t)
	mss := NewMSSClient("http://unused.invalid", "app-id", "app-key", nil, NewPushResultParser(nil))
	task := &BaseTask{DB: db, MSS: mss, Log: logging.New("json", "error"), HitDate: "2026-07-30"}

	if err := ExecutePushTask(context.Background(), task, ClassPushTask{}); err != nil {
		t.Fatalf("ExecutePushTask with no matching rows should be a no-op, got: %v", err)
	}
}
