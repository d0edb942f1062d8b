package push

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// ClassData is the push payload for a training class, grounded on
// models/train.rs::ClassData (trimmed to the fields the MSS endpoint
// actually reads).
type ClassData struct {
	ID             string `json:"id"`
	TrainingID     string `json:"trainingId"`
	TrainingName   string `json:"training_name"`
	TrainLevel     string `json:"train_level,omitempty"`
	TrainMode      string `json:"train_mode,omitempty"`
	TrainCategory  string `json:"train_category,omitempty"`
	TrainBegTime   string `json:"train_beg_time,omitempty"`
	TrainEndTime   string `json:"train_end_time,omitempty"`
	TrainingStatus string `json:"training_status,omitempty"`
	OrgID          string `json:"org_id,omitempty"`
	OrgName        string `json:"org_name,omitempty"`
}

// ClassPushTask is the one worked PsnDataWrapper variant: it loads
// un-pushed rows from NU_trainSourceData_ztk and wraps them as
// classData envelopes, grounded on push_executor.rs's Class dispatch
// (clickhouseTable/mysqlTable) plus train.rs's ClassData shape.
type ClassPushTask struct{}

func (ClassPushTask) Kind() PsnDataKind { return KindClass }

func (ClassPushTask) LoadRows(ctx context.Context, db *sql.DB, q Query) ([]PushItem, error) {
	table := KindClass.mysqlTable()

	var where string
	var args []interface{}
	switch q.Kind {
	case QueryByDate:
		where = "hitdate = ? AND (trainNotifyMss IS NULL OR trainNotifyMss = '0')"
		args = append(args, q.Date)
	case QueryByIDs:
		if len(q.IDs) == 0 {
			return nil, nil
		}
		placeholders := make([]string, len(q.IDs))
		for i, id := range q.IDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		where = fmt.Sprintf("TRAINID IN (%s)", strings.Join(placeholders, ","))
	default:
		return nil, fmt.Errorf("unsupported query kind %v", q.Kind)
	}

	query := fmt.Sprintf(`SELECT TRAINID, training_name, train_level, train_mode,
		train_category, train_beg_time, train_end_time, training_status,
		org_id, org_name FROM %s WHERE %s`, table, where)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var items []PushItem
	for rows.Next() {
		var d ClassData
		var level, mode, category, beg, end, status, orgID, orgName sql.NullString
		if err := rows.Scan(&d.TrainingID, &d.TrainingName, &level, &mode,
			&category, &beg, &end, &status, &orgID, &orgName); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		d.ID = d.TrainingID
		d.TrainLevel = level.String
		d.TrainMode = mode.String
		d.TrainCategory = category.String
		d.TrainBegTime = beg.String
		d.TrainEndTime = end.String
		d.TrainingStatus = status.String
		d.OrgID = orgID.String
		d.OrgName = orgName.String

		items = append(items, PushItem{ID: d.TrainingID, KeyName: "classData", Payload: d})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", table, err)
	}
	return items, nil
}
