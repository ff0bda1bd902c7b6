package editor

import (
	"errors"

	"golang.org/x/text/language"

	"github.com/mind-engage/mindengage-quizcontent/internal/form/fieldarray"
	"github.com/mind-engage/mindengage-quizcontent/internal/form/validate"
	"github.com/mind-engage/mindengage-quizcontent/internal/lesson"
)

var (
	ErrUnknownField = errors.New("unknown field")
	ErrNoAnswerList = errors.New("block has no answer list")
	ErrUnknownType  = errors.New("unknown block type")
	ErrUneditable   = errors.New("block type is not editable")
)

// VariantEditor edits one block type. Implementations are registered by
// discriminant; a block whose type has no editor is kept in the form state
// but never rendered or validated.
type VariantEditor interface {
	Type() lesson.BlockType
	// NewBlock returns the blank block appended by the "add" action.
	NewBlock(id string) lesson.Block
	// Bind attaches the editor to one block of the form state. keys mints
	// render keys for any nested list the variant owns.
	Bind(b lesson.Block, keys fieldarray.KeyFunc) Bound
}

// FieldRef names a field by identity: block render key, nested item render
// key (empty for top-level fields) and field name. Unlike a path it survives
// insertions and removals around it.
type FieldRef struct {
	Block string
	Item  string
	Name  string
}

// Bound is a variant editor attached to one block. Paths are always given
// the block's current prefix ("blocks.3") by the caller.
type Bound interface {
	Block() lesson.Block
	Validate(prefix string, v *validate.Validator)
	// SetField applies user input to a field path relative to the block and
	// returns the field's identity (Block left empty).
	SetField(field, value string) (FieldRef, error)
	// Path resolves a field identity back to its current full path.
	Path(prefix string, ref FieldRef) (string, bool)
	Render(prefix string, index int, errs validate.Errors) BlockView
}

// AnswerList is implemented by bound variants that own a nested list of
// incorrect answers.
type AnswerList interface {
	AppendIncorrectAnswer() string
	RemoveIncorrectAnswer(i int) error
}

var registry = map[lesson.BlockType]VariantEditor{}

// Register a variant editor. Call from init().
func Register(e VariantEditor) { registry[e.Type()] = e }

// Lookup returns the registered editor for a discriminant.
func Lookup(t lesson.BlockType) (VariantEditor, bool) { e, ok := registry[t]; return e, ok }

// ValidateBlocks runs the rules of every editable block of bs without an
// editing session. Paths are the ones a session would report.
func ValidateBlocks(bs lesson.Blocks, locale language.Tag) validate.Errors {
	v := validate.New(locale)
	for i, b := range bs {
		ed, ok := Lookup(b.BlockType())
		if !ok {
			continue
		}
		ed.Bind(b, fieldarray.UUIDKeys).Validate(blockPrefix(i), v)
	}
	return v.Errors()
}
