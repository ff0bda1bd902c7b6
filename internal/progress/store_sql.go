package progress

import (
	"context"
	"database/sql"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) MarkComplete(ctx context.Context, userID string, kind Kind, refID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO progress (user_id,kind,ref_id,completed_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (user_id,kind,ref_id) DO NOTHING`,
		userID, string(kind), refID, at.Unix())
	return err
}

func (s *SQLStore) CompleteCounts(ctx context.Context, userID string) (CompleteCounts, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM progress WHERE user_id=$1 GROUP BY kind`, userID)
	if err != nil {
		return CompleteCounts{}, err
	}
	defer rows.Close()
	var out CompleteCounts
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return CompleteCounts{}, err
		}
		switch Kind(kind) {
		case KindCourse:
			out.Courses = n
		case KindModule:
			out.Modules = n
		case KindLesson:
			out.Lessons = n
		}
	}
	return out, rows.Err()
}

func (s *SQLStore) LessonCompletions(ctx context.Context, userID string, from, to time.Time) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT completed_at FROM progress
		WHERE user_id=$1 AND kind=$2 AND completed_at >= $3 AND completed_at < $4
		ORDER BY completed_at`, userID, string(KindLesson), from.Unix(), to.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []time.Time{}
	for rows.Next() {
		var ts int64
		if err := rows.Scan(&ts); err != nil {
			return nil, err
		}
		out = append(out, time.Unix(ts, 0))
	}
	return out, rows.Err()
}
