package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joetm/ckanext-feeds/internal/models"
)

// ActivityRepository handles activity stream storage and retrieval.
type ActivityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a new activity repository.
func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

const activityColumns = `id, activity_type, user_id, object_id, revision_id, timestamp, data`

// Record stores an activity and its detail records in one transaction.
// Missing IDs and timestamps are filled in.
func (r *ActivityRepository) Record(ctx context.Context, activity *models.Activity, details []models.ActivityDetail) error {
	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	if activity.RevisionID == "" {
		activity.RevisionID = uuid.New().String()
	}
	if activity.Timestamp == "" {
		activity.Timestamp = time.Now().UTC().Format(models.TimestampLayout)
	}

	ts, err := time.Parse(models.TimestampLayout, activity.Timestamp)
	if err != nil {
		return fmt.Errorf("invalid activity timestamp %q: %w", activity.Timestamp, err)
	}

	dataJSON, err := marshalData(activity.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal activity data: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO activities (id, activity_type, user_id, object_id, revision_id, timestamp, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, activity.ID, activity.ActivityType, activity.UserID, activity.ObjectID, activity.RevisionID, ts, dataJSON)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}

	for i := range details {
		detail := &details[i]
		if detail.ID == "" {
			detail.ID = uuid.New().String()
		}
		detail.ActivityID = activity.ID

		detailJSON, err := marshalData(detail.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal detail data: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO activity_details (id, activity_id, activity_type, object_type, data)
			VALUES ($1, $2, $3, $4, $5)
		`, detail.ID, detail.ActivityID, detail.ActivityType, detail.ObjectType, detailJSON)
		if err != nil {
			return fmt.Errorf("failed to insert activity detail: %w", err)
		}
	}

	return tx.Commit()
}

// PackageActivityList returns activities for one dataset, newest first.
func (r *ActivityRepository) PackageActivityList(ctx context.Context, id string, offset, limit int) ([]models.Activity, error) {
	return r.objectActivityList(ctx, id, offset, limit)
}

// GroupActivityList returns activities for one group, newest first.
func (r *ActivityRepository) GroupActivityList(ctx context.Context, id string, offset, limit int) ([]models.Activity, error) {
	return r.objectActivityList(ctx, id, offset, limit)
}

// OrganizationActivityList returns activities for one organization, newest first.
func (r *ActivityRepository) OrganizationActivityList(ctx context.Context, id string, offset, limit int) ([]models.Activity, error) {
	return r.objectActivityList(ctx, id, offset, limit)
}

// UserActivityList returns the activities performed by one user, newest first.
func (r *ActivityRepository) UserActivityList(ctx context.Context, id string, offset, limit int) ([]models.Activity, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM activities
		WHERE user_id = $1 OR object_id = $1
		ORDER BY timestamp DESC
		OFFSET $2 LIMIT $3
	`, activityColumns)

	return r.queryActivities(ctx, query, id, offset, clampLimit(limit))
}

func (r *ActivityRepository) objectActivityList(ctx context.Context, id string, offset, limit int) ([]models.Activity, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM activities
		WHERE object_id = $1
		ORDER BY timestamp DESC
		OFFSET $2 LIMIT $3
	`, activityColumns)

	return r.queryActivities(ctx, query, id, offset, clampLimit(limit))
}

// DashboardActivityList returns the user's dashboard stream: activities by the
// user plus activities by followed users and on followed objects. IsNew is
// computed against the dashboard's last-viewed timestamp; onlyNew restricts
// the result to unseen activities. The optional query string matches against
// the activity type.
func (r *ActivityRepository) DashboardActivityList(ctx context.Context, userID string, offset, limit int, onlyNew bool, q string) ([]models.Activity, error) {
	query := `
		SELECT a.id, a.activity_type, a.user_id, a.object_id, a.revision_id, a.timestamp, a.data,
		       a.timestamp > COALESCE(d.activity_stream_last_viewed, to_timestamp(0)) AS is_new
		FROM activities a
		LEFT JOIN dashboards d ON d.user_id = $1
		WHERE (
			a.user_id = $1
			OR a.user_id IN (
				SELECT object_id FROM user_follows
				WHERE follower_id = $1 AND object_type = 'user'
			)
			OR a.object_id IN (
				SELECT object_id FROM user_follows
				WHERE follower_id = $1 AND object_type IN ('dataset', 'group')
			)
		)
	`
	args := []interface{}{userID}
	argPos := 2

	if onlyNew {
		query += " AND a.timestamp > COALESCE(d.activity_stream_last_viewed, to_timestamp(0))"
	}

	if q != "" {
		query += fmt.Sprintf(" AND a.activity_type ILIKE $%d", argPos)
		args = append(args, "%"+q+"%")
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY a.timestamp DESC OFFSET $%d LIMIT $%d", argPos, argPos+1)
	args = append(args, offset, clampLimit(limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dashboard activities: %w", err)
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		var activity models.Activity
		var ts time.Time
		var dataJSON []byte

		err := rows.Scan(
			&activity.ID,
			&activity.ActivityType,
			&activity.UserID,
			&activity.ObjectID,
			&activity.RevisionID,
			&ts,
			&dataJSON,
			&activity.IsNew,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}

		activity.Timestamp = ts.UTC().Format(models.TimestampLayout)
		if activity.Data, err = unmarshalData(dataJSON); err != nil {
			return nil, err
		}

		activities = append(activities, activity)
	}

	return activities, rows.Err()
}

// DetailList returns the detail records attached to one activity.
func (r *ActivityRepository) DetailList(ctx context.Context, activityID string) ([]models.ActivityDetail, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, activity_id, activity_type, object_type, data
		FROM activity_details
		WHERE activity_id = $1
		ORDER BY id
	`, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity details: %w", err)
	}
	defer rows.Close()

	details := []models.ActivityDetail{}
	for rows.Next() {
		var detail models.ActivityDetail
		var dataJSON []byte

		err := rows.Scan(&detail.ID, &detail.ActivityID, &detail.ActivityType, &detail.ObjectType, &dataJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity detail: %w", err)
		}

		if detail.Data, err = unmarshalData(dataJSON); err != nil {
			return nil, err
		}

		details = append(details, detail)
	}

	return details, rows.Err()
}

// MarkActivitiesOld records that the user has viewed their dashboard, so
// activities up to now are no longer new.
func (r *ActivityRepository) MarkActivitiesOld(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dashboards (user_id, activity_stream_last_viewed)
		VALUES ($1, NOW())
		ON CONFLICT (user_id) DO UPDATE SET activity_stream_last_viewed = NOW()
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to mark activities old: %w", err)
	}
	return nil
}

// DeleteOlderThan deletes activities older than the given age. Detail
// records follow via the foreign key cascade.
func (r *ActivityRepository) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)

	result, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old activities: %w", err)
	}

	return result.RowsAffected()
}

func (r *ActivityRepository) queryActivities(ctx context.Context, query string, args ...interface{}) ([]models.Activity, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		var activity models.Activity
		var ts time.Time
		var dataJSON []byte

		err := rows.Scan(
			&activity.ID,
			&activity.ActivityType,
			&activity.UserID,
			&activity.ObjectID,
			&activity.RevisionID,
			&ts,
			&dataJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}

		activity.Timestamp = ts.UTC().Format(models.TimestampLayout)
		if activity.Data, err = unmarshalData(dataJSON); err != nil {
			return nil, err
		}

		activities = append(activities, activity)
	}

	return activities, rows.Err()
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func marshalData(data map[string]any) ([]byte, error) {
	if data == nil {
		return nil, nil
	}
	return json.Marshal(data)
}

func unmarshalData(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal activity data: %w", err)
	}
	return data, nil
}
