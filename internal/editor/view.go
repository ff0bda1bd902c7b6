package editor

import (
	"github.com/mind-engage/mindengage-quizcontent/internal/form/validate"
	"github.com/mind-engage/mindengage-quizcontent/internal/lesson"
)

type FieldView struct {
	Path  string `json:"path"`
	Label string `json:"label"`
	Value string `json:"value"`
	Error string `json:"error,omitempty"`
}

type AnswerView struct {
	Key   string    `json:"key"`
	Index int       `json:"index"`
	Field FieldView `json:"field"`
}

type BlockView struct {
	Key     string           `json:"key"`
	ID      string           `json:"id"`
	Index   int              `json:"index"`
	Type    lesson.BlockType `json:"type"`
	Title   string           `json:"title"`
	Fields  []FieldView      `json:"fields"`
	Answers []AnswerView     `json:"answers,omitempty"`
}

type EditorView struct {
	SessionID string          `json:"session_id"`
	LessonID  string          `json:"lesson_id"`
	Revision  int64           `json:"revision"`
	Editable  bool            `json:"editable"`
	Blocks    []BlockView     `json:"blocks"`
	Errors    validate.Errors `json:"errors"`
	Outcome   *Outcome        `json:"outcome,omitempty"`
}

func fieldView(path, label, value string, errs validate.Errors) FieldView {
	return FieldView{Path: path, Label: label, Value: value, Error: errs[path].Message}
}
