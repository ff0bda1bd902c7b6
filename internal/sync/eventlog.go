package syncx

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/mind-engage/mindengage-quizcontent/internal/lesson"
)

const TypeLessonContentUpdated = "LessonContentUpdated"

type Event struct {
	Seq       int64  `json:"seq"`
	SiteID    string `json:"site_id"`
	Type      string `json:"type"`
	Key       string `json:"key"`
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

type EventRepo struct {
	db     *sql.DB
	siteID string
	now    func() time.Time
}

func NewEventRepo(db *sql.DB, siteID string) *EventRepo {
	if siteID == "" {
		siteID = "local"
	}
	return &EventRepo{db: db, siteID: siteID, now: time.Now}
}

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	if e.SiteID == "" {
		e.SiteID = r.siteID
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.SiteID, e.Type, e.Key, e.DataJSON, r.now().Unix())
	return err
}

// ListByKey returns the events of one natural key, oldest first.
func (r *EventRepo) ListByKey(ctx context.Context, key string, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, site_id, typ, key, data, created_at FROM event_log
		 WHERE key=$1 ORDER BY seq ASC LIMIT $2`, key, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Seq, &e.SiteID, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type lessonUpdated struct {
	Revision  int64 `json:"revision"`
	Blocks    int   `json:"blocks"`
	UpdatedAt int64 `json:"updated_at"`
}

// LessonUpdatedHook records a LessonContentUpdated event for every stored
// revision of a lesson.
func (r *EventRepo) LessonUpdatedHook() lesson.UpdateHook {
	return func(ctx context.Context, c lesson.Content) error {
		data, err := json.Marshal(lessonUpdated{
			Revision:  c.Revision,
			Blocks:    len(c.LessonContent.Blocks),
			UpdatedAt: c.UpdatedAt,
		})
		if err != nil {
			return err
		}
		return r.Append(ctx, Event{Type: TypeLessonContentUpdated, Key: c.ID, DataJSON: string(data)})
	}
}
