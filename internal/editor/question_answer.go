package editor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mind-engage/mindengage-quizcontent/internal/form/fieldarray"
	"github.com/mind-engage/mindengage-quizcontent/internal/form/validate"
	"github.com/mind-engage/mindengage-quizcontent/internal/lesson"
)

func init() {
	Register(questionAnswerEditor{})
}

var (
	questionRules        = []validate.Rule{validate.Required(validate.MsgQuestionRequired), validate.MinLength(1, validate.MsgMinLength)}
	correctAnswerRules   = []validate.Rule{validate.Required(validate.MsgCorrectAnswerRequired), validate.MinLength(1, validate.MsgMinLength)}
	incorrectAnswerRules = []validate.Rule{validate.Required(validate.MsgIncorrectAnswerRequired), validate.MinLength(1, validate.MsgMinLength)}
)

type questionAnswerEditor struct{}

func (questionAnswerEditor) Type() lesson.BlockType { return lesson.TypeQuestionAnswer }

// NewBlock starts with one blank incorrect answer.
func (questionAnswerEditor) NewBlock(id string) lesson.Block {
	return &lesson.QuestionAnswerBlock{
		ID:     id,
		Answer: []lesson.IncorrectAnswer{{OtherAnswer: ""}},
	}
}

func (questionAnswerEditor) Bind(b lesson.Block, keys fieldarray.KeyFunc) Bound {
	qa := b.(*lesson.QuestionAnswerBlock)
	return &questionAnswerBound{
		b:       qa,
		answers: fieldarray.New(&qa.Answer, keys),
	}
}

type questionAnswerBound struct {
	b       *lesson.QuestionAnswerBlock
	answers *fieldarray.FieldArray[lesson.IncorrectAnswer]
}

func (q *questionAnswerBound) Block() lesson.Block { return q.b }

func (q *questionAnswerBound) Validate(prefix string, v *validate.Validator) {
	v.Field(prefix+".question", q.b.Question, questionRules...)
	v.Field(prefix+".correctAnswer", q.b.CorrectAnswer, correctAnswerRules...)
	for f := range q.answers.Fields() {
		v.Field(answerPath(prefix, f.Index), f.Value.OtherAnswer, incorrectAnswerRules...)
	}
}

func (q *questionAnswerBound) SetField(field, value string) (FieldRef, error) {
	switch field {
	case "question":
		q.b.Question = value
		return FieldRef{Name: field}, nil
	case "correctAnswer":
		q.b.CorrectAnswer = value
		return FieldRef{Name: field}, nil
	}
	// answer.{i}.otherAnswer
	rest, ok := strings.CutPrefix(field, "answer.")
	if !ok {
		return FieldRef{}, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	idx, name, ok := strings.Cut(rest, ".")
	if !ok || name != "otherAnswer" {
		return FieldRef{}, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	i, err := strconv.Atoi(idx)
	if err != nil {
		return FieldRef{}, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	key, err := q.answers.KeyAt(i)
	if err != nil {
		return FieldRef{}, err
	}
	q.b.Answer[i].OtherAnswer = value
	return FieldRef{Item: key, Name: name}, nil
}

func (q *questionAnswerBound) Path(prefix string, ref FieldRef) (string, bool) {
	if ref.Item == "" {
		return prefix + "." + ref.Name, true
	}
	for f := range q.answers.Fields() {
		if f.Key == ref.Item {
			return answerPath(prefix, f.Index), true
		}
	}
	return "", false
}

func (q *questionAnswerBound) Render(prefix string, index int, errs validate.Errors) BlockView {
	v := BlockView{
		ID:    q.b.ID,
		Index: index,
		Type:  lesson.TypeQuestionAnswer,
		Title: fmt.Sprintf("%d. Question Answer Block", index+1),
		Fields: []FieldView{
			fieldView(prefix+".question", "Question", q.b.Question, errs),
			fieldView(prefix+".correctAnswer", "CorrectAnswer", q.b.CorrectAnswer, errs),
		},
		Answers: []AnswerView{},
	}
	for f := range q.answers.Fields() {
		v.Answers = append(v.Answers, AnswerView{
			Key:   f.Key,
			Index: f.Index,
			Field: fieldView(answerPath(prefix, f.Index), "Incorrect Answer", f.Value.OtherAnswer, errs),
		})
	}
	return v
}

func (q *questionAnswerBound) AppendIncorrectAnswer() string {
	return q.answers.Append(lesson.IncorrectAnswer{OtherAnswer: ""})
}

func (q *questionAnswerBound) RemoveIncorrectAnswer(i int) error {
	return q.answers.RemoveAt(i)
}

func answerPath(prefix string, i int) string {
	return prefix + ".answer." + strconv.Itoa(i) + ".otherAnswer"
}
