// Package validate runs declarative per-field rules and collects failures
// keyed by field path ("blocks.0.answer.1.otherAnswer").
package validate

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Rule struct {
	Name string
	msg  string
	args []any
	ok   func(string) bool
}

// Required fails on the empty string. Whitespace counts as a value.
func Required(msg string) Rule {
	return Rule{Name: "required", msg: msg, ok: func(s string) bool { return s != "" }}
}

// MinLength fails when s has fewer than n characters.
func MinLength(n int, msg string) Rule {
	return Rule{Name: "minLength", msg: msg, args: []any{n}, ok: func(s string) bool {
		return utf8.RuneCountInString(s) >= n
	}}
}

type FieldError struct {
	Path    string `json:"path"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

type Errors map[string]FieldError

func (e Errors) Has(path string) bool {
	_, ok := e[path]
	return ok
}

func (e Errors) Paths() []string {
	out := make([]string, 0, len(e))
	for p := range e {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, p := range e.Paths() {
		parts = append(parts, p+": "+e[p].Message)
	}
	return strings.Join(parts, "; ")
}

type Validator struct {
	p    *message.Printer
	errs Errors
}

func New(tag language.Tag) *Validator {
	return &Validator{p: message.NewPrinter(tag), errs: Errors{}}
}

// Field checks value against rules in order and records the first failure
// under path. It reports whether the field passed.
func (v *Validator) Field(path, value string, rules ...Rule) bool {
	for _, r := range rules {
		if r.ok(value) {
			continue
		}
		v.errs[path] = FieldError{Path: path, Rule: r.Name, Message: v.p.Sprintf(r.msg, r.args...)}
		return false
	}
	delete(v.errs, path)
	return true
}

func (v *Validator) Errors() Errors { return v.errs }

func (v *Validator) OK() bool { return len(v.errs) == 0 }
