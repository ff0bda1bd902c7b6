package lesson

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) GetLessonContent(ctx context.Context, id string) (Content, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,content_json,revision,updated_at FROM lessons WHERE id=$1`, id)
	var c Content
	var cjson string
	if err := row.Scan(&c.ID, &cjson, &c.Revision, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Content{}, ErrNotFound
		}
		return Content{}, err
	}
	if err := json.Unmarshal([]byte(cjson), &c.LessonContent); err != nil {
		return Content{}, fmt.Errorf("decode lesson %s content: %w", id, err)
	}
	if c.LessonContent.Blocks == nil {
		c.LessonContent.Blocks = Blocks{}
	}
	return c, nil
}

func (s *SQLStore) UpdateLessonContent(ctx context.Context, req UpdateContentRequest) (Content, error) {
	if req.ID == "" {
		return Content{}, errors.New("lesson id required")
	}
	cj, err := json.Marshal(req.LessonContent)
	if err != nil {
		return Content{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO lessons (id,content_json,revision,updated_at)
		VALUES ($1,$2,1,$3)
		ON CONFLICT (id) DO UPDATE SET content_json=EXCLUDED.content_json, revision=lessons.revision+1, updated_at=EXCLUDED.updated_at`,
		req.ID, string(cj), time.Now().Unix())
	if err != nil {
		return Content{}, err
	}
	return s.GetLessonContent(ctx, req.ID)
}
