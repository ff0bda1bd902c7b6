package editor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/mind-engage/mindengage-quizcontent/internal/form/fieldarray"
	"github.com/mind-engage/mindengage-quizcontent/internal/form/validate"
	"github.com/mind-engage/mindengage-quizcontent/internal/lesson"
	"github.com/mind-engage/mindengage-quizcontent/internal/logger"
)

var (
	ErrSubmitInFlight = errors.New("submit already in flight")
	ErrSessionClosed  = errors.New("editing session closed")
)

// ValidationError is returned by Submit when any field fails its rules.
type ValidationError struct {
	Errors validate.Errors
}

func (e *ValidationError) Error() string { return "validation failed: " + e.Errors.Error() }

// Host receives the editor's outcome. SetIsSuccessVisible is called exactly
// once per submit that passes validation. SetQuizContentEditable is called
// once the session stops accepting edits; an await-mode save that fails
// leaves the session open and skips it.
type Host interface {
	SetQuizContentEditable()
	SetIsSuccessVisible(id string, visible, isSuccess bool, errMsg string)
}

// Saver is the part of the content store the editor writes through.
type Saver interface {
	UpdateLessonContent(ctx context.Context, req lesson.UpdateContentRequest) (lesson.Content, error)
}

type SubmitMode string

const (
	// SubmitDetached hands the payload to the store in the background and
	// reports success to the host right away. Store failures are only logged.
	SubmitDetached SubmitMode = "detached"
	// SubmitAwait waits for the store and reports its real outcome.
	SubmitAwait SubmitMode = "await"
)

func ParseSubmitMode(s string) SubmitMode {
	if strings.EqualFold(strings.TrimSpace(s), string(SubmitAwait)) {
		return SubmitAwait
	}
	return SubmitDetached
}

type Options struct {
	Mode    SubmitMode
	Timeout time.Duration // store call budget; default 30s
	IdleTTL time.Duration // Manager only; default 2h
	Locale  language.Tag
	NewID   func() string
	Keys    fieldarray.KeyFunc
	Log     *logger.Logger
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = SubmitDetached
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Locale == language.Und {
		o.Locale = language.English
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	if o.Keys == nil {
		o.Keys = fieldarray.UUIDKeys
	}
	if o.Log == nil {
		o.Log = logger.Nop()
	}
	return o
}

type SubmitResult struct {
	Payload lesson.UpdateContentRequest
	// Content is the stored record; only set in await mode.
	Content *lesson.Content
}

// Session is one editing session of a lesson's quiz content: the form state
// (the block list), the render keys and nested list controllers attached to
// it, and submission. All methods are safe for concurrent use; mutations are
// serialized.
type Session struct {
	mu sync.Mutex

	lessonID string
	revision int64
	blocks   []lesson.Block
	list     *fieldarray.FieldArray[lesson.Block]
	bound    map[string]Bound // by block render key

	touched   map[FieldRef]bool
	attempted bool

	closed   bool
	inFlight bool
	wg       sync.WaitGroup

	host  Host
	store Saver
	opts  Options
	log   *logger.Logger
}

func NewSession(initial lesson.Content, host Host, store Saver, opts Options) *Session {
	opts = opts.withDefaults()
	s := &Session{
		lessonID: initial.ID,
		host:     host,
		store:    store,
		opts:     opts,
		log:      opts.Log.With("lesson_id", initial.ID),
	}
	s.resetLocked(initial.LessonContent.Blocks, initial.Revision)
	return s
}

func (s *Session) LessonID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lessonID
}

// Saving reports whether a store call started by Submit is still running.
func (s *Session) Saving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

func (s *Session) Revision() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Sync resets the form state to initial when it is not the data the session
// was seeded from (another lesson or another revision). Unsaved edits are
// discarded. It reports whether a reset happened. A session that is saving
// is left alone.
func (s *Session) Sync(initial lesson.Content) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight || (initial.ID == s.lessonID && initial.Revision == s.revision) {
		return false
	}
	s.lessonID = initial.ID
	s.resetLocked(initial.LessonContent.Blocks, initial.Revision)
	return true
}

// Reset replaces the form state with blocks unconditionally.
func (s *Session) Reset(blocks lesson.Blocks) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return ErrSubmitInFlight
	}
	s.resetLocked(blocks, s.revision)
	return nil
}

func (s *Session) resetLocked(blocks lesson.Blocks, revision int64) {
	s.blocks = blocks.Clone()
	if s.blocks == nil {
		s.blocks = []lesson.Block{}
	}
	s.revision = revision
	if s.list == nil {
		s.list = fieldarray.New(&s.blocks, s.opts.Keys)
	} else {
		s.list.Reset()
	}
	s.bound = map[string]Bound{}
	for f := range s.list.Fields() {
		s.bindLocked(f.Key, f.Value)
	}
	s.touched = map[FieldRef]bool{}
	s.attempted = false
}

func (s *Session) bindLocked(key string, b lesson.Block) {
	ed, ok := Lookup(b.BlockType())
	if !ok {
		s.log.Debug("block has no editor, kept as is", "block_id", b.BlockID(), "type", b.BlockType())
		return
	}
	s.bound[key] = ed.Bind(b, s.opts.Keys)
}

func (s *Session) Blocks() lesson.Blocks {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lesson.Blocks(s.blocks).Clone()
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Len()
}

// AddQuestionAnswerBlock appends a blank question/answer block with one blank
// incorrect answer and returns its render key.
func (s *Session) AddQuestionAnswerBlock() (string, error) {
	return s.AddBlock(lesson.TypeQuestionAnswer)
}

// AddFixedLettersBlock appends a blank fixed-letters block.
func (s *Session) AddFixedLettersBlock() (string, error) {
	return s.AddBlock(lesson.TypeFixedLetters)
}

func (s *Session) AddBlock(t lesson.BlockType) (string, error) {
	ed, ok := Lookup(t)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return "", err
	}
	b := ed.NewBlock(s.opts.NewID())
	key := s.list.Append(b)
	s.bound[key] = ed.Bind(b, s.opts.Keys)
	return key, nil
}

func (s *Session) RemoveBlock(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return err
	}
	key, err := s.list.KeyAt(i)
	if err != nil {
		return err
	}
	if err := s.list.RemoveAt(i); err != nil {
		return err
	}
	delete(s.bound, key)
	for ref := range s.touched {
		if ref.Block == key {
			delete(s.touched, ref)
		}
	}
	return nil
}

// AppendIncorrectAnswer adds a blank incorrect answer to the block at
// blockIndex and returns the answer's render key.
func (s *Session) AppendIncorrectAnswer(blockIndex int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	al, err := s.answerListLocked(blockIndex)
	if err != nil {
		return "", err
	}
	return al.AppendIncorrectAnswer(), nil
}

func (s *Session) RemoveIncorrectAnswer(blockIndex, answerIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	al, err := s.answerListLocked(blockIndex)
	if err != nil {
		return err
	}
	return al.RemoveIncorrectAnswer(answerIndex)
}

func (s *Session) answerListLocked(blockIndex int) (AnswerList, error) {
	if err := s.editableLocked(); err != nil {
		return nil, err
	}
	key, err := s.list.KeyAt(blockIndex)
	if err != nil {
		return nil, err
	}
	al, ok := s.bound[key].(AnswerList)
	if !ok {
		return nil, fmt.Errorf("%w: block %d", ErrNoAnswerList, blockIndex)
	}
	return al, nil
}

// SetField applies user input at a full field path ("blocks.0.question",
// "blocks.0.answer.1.otherAnswer") and re-validates that field. The returned
// errors hold the field's failure, if any.
func (s *Session) SetField(path, value string) (validate.Errors, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return nil, err
	}
	idx, rel, err := splitBlockPath(path)
	if err != nil {
		return nil, err
	}
	key, err := s.list.KeyAt(idx)
	if err != nil {
		return nil, err
	}
	bd, ok := s.bound[key]
	if !ok {
		return nil, fmt.Errorf("%w: block %d", ErrUneditable, idx)
	}
	ref, err := bd.SetField(rel, value)
	if err != nil {
		return nil, err
	}
	ref.Block = key
	s.touched[ref] = true

	v := validate.New(s.opts.Locale)
	bd.Validate(blockPrefix(idx), v)
	out := validate.Errors{}
	if fe, ok := v.Errors()[path]; ok {
		out[path] = fe
	}
	return out, nil
}

// editableLocked rejects edits once the session is closed or while a save
// holds a snapshot of the form state.
func (s *Session) editableLocked() error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.inFlight {
		return ErrSubmitInFlight
	}
	return nil
}

// Validate runs every rule of every block.
func (s *Session) Validate() validate.Errors {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateLocked()
}

func (s *Session) validateLocked() validate.Errors {
	v := validate.New(s.opts.Locale)
	for f := range s.list.Fields() {
		if bd, ok := s.bound[f.Key]; ok {
			bd.Validate(blockPrefix(f.Index), v)
		}
	}
	return v.Errors()
}

// visibleErrorsLocked returns the errors a client should display: all of them
// once a submit was attempted, otherwise only those of fields the author has
// changed.
func (s *Session) visibleErrorsLocked() validate.Errors {
	all := s.validateLocked()
	if s.attempted {
		return all
	}
	visible := validate.Errors{}
	index := map[string]int{}
	for f := range s.list.Fields() {
		index[f.Key] = f.Index
	}
	for ref := range s.touched {
		i, ok := index[ref.Block]
		if !ok {
			delete(s.touched, ref)
			continue
		}
		path, ok := s.bound[ref.Block].Path(blockPrefix(i), ref)
		if !ok {
			delete(s.touched, ref)
			continue
		}
		if fe, ok := all[path]; ok {
			visible[path] = fe
		}
	}
	return visible
}

// View renders the current form state. Blocks without a registered editor
// render nothing.
func (s *Session) View() EditorView {
	s.mu.Lock()
	defer s.mu.Unlock()
	errs := s.visibleErrorsLocked()
	v := EditorView{
		LessonID: s.lessonID,
		Revision: s.revision,
		Editable: !s.closed,
		Blocks:   []BlockView{},
		Errors:   errs,
	}
	for f := range s.list.Fields() {
		bd, ok := s.bound[f.Key]
		if !ok {
			continue
		}
		bv := bd.Render(blockPrefix(f.Index), f.Index, errs)
		bv.Key = f.Key
		v.Blocks = append(v.Blocks, bv)
	}
	return v
}

// Submit validates the whole form. On failure it returns a *ValidationError
// and has no other effect. Otherwise it hands the payload to the store and
// reports to the host as described on Host; see SubmitMode for when.
func (s *Session) Submit(ctx context.Context) (SubmitResult, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return SubmitResult{}, ErrSubmitInFlight
	}
	if s.closed {
		s.mu.Unlock()
		return SubmitResult{}, ErrSessionClosed
	}
	s.attempted = true
	if errs := s.validateLocked(); len(errs) > 0 {
		s.mu.Unlock()
		return SubmitResult{}, &ValidationError{Errors: errs}
	}
	req := lesson.UpdateContentRequest{
		ID:            s.lessonID,
		LessonContent: lesson.LessonContent{Blocks: lesson.Blocks(s.blocks).Clone()},
	}
	s.inFlight = true
	if s.opts.Mode != SubmitAwait {
		s.closed = true
		s.wg.Add(1)
	}
	s.mu.Unlock()

	res := SubmitResult{Payload: req}
	if s.opts.Mode == SubmitAwait {
		c, err := s.submitAwait(ctx, req)
		if err != nil {
			return res, fmt.Errorf("update lesson content: %w", err)
		}
		res.Content = &c
		return res, nil
	}

	go s.persistDetached(context.WithoutCancel(ctx), req)

	s.host.SetQuizContentEditable()
	s.host.SetIsSuccessVisible(req.ID, true, true, "")
	return res, nil
}

func (s *Session) submitAwait(ctx context.Context, req lesson.UpdateContentRequest) (c lesson.Content, err error) {
	defer func() {
		s.mu.Lock()
		s.inFlight = false
		if err == nil {
			s.closed = true
			s.revision = c.Revision
		}
		s.mu.Unlock()

		if err != nil {
			s.host.SetIsSuccessVisible(req.ID, true, false, err.Error())
			return
		}
		s.host.SetQuizContentEditable()
		s.host.SetIsSuccessVisible(req.ID, true, true, "")
	}()
	c, err = s.persist(ctx, req)
	return c, err
}

func (s *Session) persistDetached(ctx context.Context, req lesson.UpdateContentRequest) {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("lesson content update panicked", "panic", r)
		}
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()
	c, err := s.persist(ctx, req)
	if err != nil {
		s.log.Error("lesson content update failed", "error", err)
		return
	}
	s.mu.Lock()
	s.revision = c.Revision
	s.mu.Unlock()
	s.log.Info("lesson content updated", "revision", c.Revision, "blocks", len(req.LessonContent.Blocks))
}

func (s *Session) persist(ctx context.Context, req lesson.UpdateContentRequest) (lesson.Content, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	return s.store.UpdateLessonContent(ctx, req)
}

// Wait blocks until background store calls started by Submit have returned.
func (s *Session) Wait() { s.wg.Wait() }

// Close ends the session without saving.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func blockPrefix(i int) string { return "blocks." + strconv.Itoa(i) }

// splitBlockPath splits "blocks.{i}.rest" into i and rest.
func splitBlockPath(path string) (int, string, error) {
	rest, ok := strings.CutPrefix(path, "blocks.")
	if !ok {
		return 0, "", fmt.Errorf("%w: %s", ErrUnknownField, path)
	}
	idx, rel, ok := strings.Cut(rest, ".")
	if !ok || rel == "" {
		return 0, "", fmt.Errorf("%w: %s", ErrUnknownField, path)
	}
	i, err := strconv.Atoi(idx)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %s", ErrUnknownField, path)
	}
	return i, rel, nil
}
