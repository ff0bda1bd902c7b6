package lesson

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type BlockType string

const (
	TypeQuestionAnswer BlockType = "QUESTION_ANSWER"
	TypeFixedLetters   BlockType = "ANSWER_WITH_FIXED_LETTERS"
)

// Block is one question of a lesson quiz. The concrete type is fixed when the
// block is created; switching variant means removing the block and adding a
// new one.
type Block interface {
	BlockID() string
	BlockType() BlockType
	clone() Block
}

type IncorrectAnswer struct {
	OtherAnswer string `json:"otherAnswer"`
}

type QuestionAnswerBlock struct {
	ID            string            `json:"id"`
	Question      string            `json:"question"`
	CorrectAnswer string            `json:"correctAnswer"`
	Answer        []IncorrectAnswer `json:"answer"`
}

func (b *QuestionAnswerBlock) BlockID() string      { return b.ID }
func (b *QuestionAnswerBlock) BlockType() BlockType { return TypeQuestionAnswer }

func (b *QuestionAnswerBlock) clone() Block {
	c := *b
	c.Answer = append([]IncorrectAnswer(nil), b.Answer...)
	if c.Answer == nil {
		c.Answer = []IncorrectAnswer{}
	}
	return &c
}

func (b *QuestionAnswerBlock) MarshalJSON() ([]byte, error) {
	type plain QuestionAnswerBlock
	answers := b.Answer
	if answers == nil {
		answers = []IncorrectAnswer{}
	}
	p := plain(*b)
	p.Answer = answers
	return json.Marshal(struct {
		Type BlockType `json:"type"`
		plain
	}{Type: TypeQuestionAnswer, plain: p})
}

type FixedLettersAnswerBlock struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (b *FixedLettersAnswerBlock) BlockID() string      { return b.ID }
func (b *FixedLettersAnswerBlock) BlockType() BlockType { return TypeFixedLetters }

func (b *FixedLettersAnswerBlock) clone() Block {
	c := *b
	return &c
}

func (b *FixedLettersAnswerBlock) MarshalJSON() ([]byte, error) {
	type plain FixedLettersAnswerBlock
	return json.Marshal(struct {
		Type BlockType `json:"type"`
		plain
	}{Type: TypeFixedLetters, plain: plain(*b)})
}

// UnknownBlock keeps a block whose discriminant this build does not know.
// It is written back byte-for-byte and never rendered or validated.
type UnknownBlock struct {
	ID   string
	Type BlockType
	Raw  json.RawMessage
}

func (b *UnknownBlock) BlockID() string      { return b.ID }
func (b *UnknownBlock) BlockType() BlockType { return b.Type }

func (b *UnknownBlock) clone() Block {
	c := *b
	c.Raw = append(json.RawMessage(nil), b.Raw...)
	return &c
}

func (b *UnknownBlock) MarshalJSON() ([]byte, error) {
	if len(b.Raw) == 0 {
		return []byte("null"), nil
	}
	return b.Raw, nil
}

// Blocks is the ordered block list of a lesson. It decodes by inspecting the
// "type" field of every element.
type Blocks []Block

func (bs Blocks) MarshalJSON() ([]byte, error) {
	if bs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Block(bs))
}

func (bs *Blocks) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*bs = Blocks{}
		return nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(Blocks, 0, len(raws))
	for i, raw := range raws {
		b, err := DecodeBlock(raw)
		if err != nil {
			return fmt.Errorf("blocks[%d]: %w", i, err)
		}
		out = append(out, b)
	}
	*bs = out
	return nil
}

// Clone returns a deep copy; the form state never aliases data it was seeded
// from or handed to a store.
func (bs Blocks) Clone() Blocks {
	out := make(Blocks, len(bs))
	for i, b := range bs {
		out[i] = b.clone()
	}
	return out
}

// DecodeBlock decodes one block, dispatching on its "type" discriminant.
func DecodeBlock(raw json.RawMessage) (Block, error) {
	var head struct {
		ID   string    `json:"id"`
		Type BlockType `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}
	switch head.Type {
	case TypeQuestionAnswer:
		var b QuestionAnswerBlock
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		if b.Answer == nil {
			b.Answer = []IncorrectAnswer{}
		}
		return &b, nil
	case TypeFixedLetters:
		var b FixedLettersAnswerBlock
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return &b, nil
	default:
		return &UnknownBlock{ID: head.ID, Type: head.Type, Raw: append(json.RawMessage(nil), raw...)}, nil
	}
}

type LessonContent struct {
	Blocks Blocks `json:"blocks"`
}

// UpdateContentRequest is the payload handed to the content store on save.
type UpdateContentRequest struct {
	ID            string        `json:"id"`
	LessonContent LessonContent `json:"lesson_content"`
}

// Content is a stored lesson's quiz content. Revision grows by one on every
// successful update and identifies the exact data an editor was seeded from.
type Content struct {
	ID            string        `json:"id"`
	LessonContent LessonContent `json:"lesson_content"`
	Revision      int64         `json:"revision"`
	UpdatedAt     int64         `json:"updated_at,omitempty"`
}
