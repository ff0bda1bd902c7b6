package editor

import (
	"fmt"

	"github.com/mind-engage/mindengage-quizcontent/internal/form/fieldarray"
	"github.com/mind-engage/mindengage-quizcontent/internal/form/validate"
	"github.com/mind-engage/mindengage-quizcontent/internal/lesson"
)

func init() {
	Register(fixedLettersEditor{})
}

var fixedAnswerRules = []validate.Rule{validate.Required(validate.MsgAnswerRequired), validate.MinLength(1, validate.MsgMinLength)}

type fixedLettersEditor struct{}

func (fixedLettersEditor) Type() lesson.BlockType { return lesson.TypeFixedLetters }

func (fixedLettersEditor) NewBlock(id string) lesson.Block {
	return &lesson.FixedLettersAnswerBlock{ID: id}
}

func (fixedLettersEditor) Bind(b lesson.Block, _ fieldarray.KeyFunc) Bound {
	return &fixedLettersBound{b: b.(*lesson.FixedLettersAnswerBlock)}
}

type fixedLettersBound struct {
	b *lesson.FixedLettersAnswerBlock
}

func (f *fixedLettersBound) Block() lesson.Block { return f.b }

func (f *fixedLettersBound) Validate(prefix string, v *validate.Validator) {
	v.Field(prefix+".question", f.b.Question, questionRules...)
	v.Field(prefix+".answer", f.b.Answer, fixedAnswerRules...)
}

func (f *fixedLettersBound) SetField(field, value string) (FieldRef, error) {
	switch field {
	case "question":
		f.b.Question = value
	case "answer":
		f.b.Answer = value
	default:
		return FieldRef{}, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return FieldRef{Name: field}, nil
}

func (f *fixedLettersBound) Path(prefix string, ref FieldRef) (string, bool) {
	if ref.Item != "" {
		return "", false
	}
	return prefix + "." + ref.Name, true
}

func (f *fixedLettersBound) Render(prefix string, index int, errs validate.Errors) BlockView {
	return BlockView{
		ID:    f.b.ID,
		Index: index,
		Type:  lesson.TypeFixedLetters,
		Title: fmt.Sprintf("%d. Answer With Fixed Letters Block", index+1),
		Fields: []FieldView{
			fieldView(prefix+".question", "Question", f.b.Question, errs),
			fieldView(prefix+".answer", "Answer", f.b.Answer, errs),
		},
	}
}
