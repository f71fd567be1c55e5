package request

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/reqview/pkg/identifier"
	"github.com/oakwood-commons/reqview/pkg/textutil"
)

// View is a request-scoped, read-mostly view over a Request. Derived fields
// are computed on first use and cached until the view is discarded or a
// setter invalidates them. A View is owned by a single goroutine.
type View struct {
	req     Request
	fields  map[string]derivedField
	cache   map[string]any
	scanner *identifier.Scanner
	log     logr.Logger

	splitLines func(string) []string
}

// Option configures a View.
type Option func(*View)

// WithScanner sets the identifier scanner used to find the completion start.
func WithScanner(s *identifier.Scanner) Option {
	return func(v *View) {
		if s != nil {
			v.scanner = s
		}
	}
}

// WithLogger sets the logger used for field resolution and override events.
func WithLogger(log logr.Logger) Option {
	return func(v *View) {
		v.log = log
	}
}

// NewView wraps req. When validate is set the request must pass
// ValidateRequest, otherwise no view is returned.
func NewView(req Request, validate bool, opts ...Option) (*View, error) {
	if validate {
		if err := ValidateRequest(req); err != nil {
			return nil, err
		}
	}
	v := &View{
		req:        req,
		cache:      make(map[string]any, len(fieldOrder)),
		scanner:    identifier.Default(),
		log:        logr.Discard(),
		splitLines: textutil.SplitLines,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.fields = v.registry()
	return v, nil
}

// Get returns the value of key. Cached values win, then derived fields (which
// are resolved and cached), then the raw request. Unknown keys fail with
// ErrKeyNotFound.
func (v *View) Get(key string) (any, error) {
	if val, ok := v.cache[key]; ok {
		return val, nil
	}
	if f, ok := v.fields[key]; ok {
		val, err := f.get()
		if err != nil {
			return nil, fieldErr(key, err)
		}
		v.cache[key] = val
		v.log.V(2).Info("resolved derived field", "field", key)
		return val, nil
	}
	return v.req.lookup(key)
}

// GetOr is Get with def returned in place of ErrKeyNotFound. Any other
// failure is returned as is.
func (v *View) GetOr(key string, def any) (any, error) {
	val, err := v.Get(key)
	if errors.Is(err, ErrKeyNotFound) {
		return def, nil
	}
	return val, err
}

// Set overrides a settable derived field. Raw request fields and read-only
// derived fields fail with ErrReadOnlyField.
func (v *View) Set(key string, value any) error {
	f, ok := v.fields[key]
	if !ok || f.set == nil {
		return fieldErr(key, ErrReadOnlyField)
	}
	if err := f.set(value); err != nil {
		return fieldErr(key, err)
	}
	return nil
}

// Has reports whether key names a derived field or a raw request field. It
// never resolves anything.
func (v *View) Has(key string) bool {
	if _, ok := v.fields[key]; ok {
		return true
	}
	_, ok := v.req[key]
	return ok
}

// Request returns the wrapped raw request. The map is shared with the view and
// must not be modified: derived fields already cached would not see the change.
func (v *View) Request() Request {
	return v.req
}

// DerivedFields returns the derived field names in resolution order.
func (v *View) DerivedFields() []string {
	return append([]string(nil), fieldOrder...)
}

// Resolve looks up keys, or every derived field when none are given, and
// returns them by name.
func (v *View) Resolve(keys ...string) (map[string]any, error) {
	if len(keys) == 0 {
		keys = fieldOrder
	}
	out := make(map[string]any, len(keys))
	for _, key := range keys {
		val, err := v.Get(key)
		if err != nil {
			return nil, err
		}
		out[key] = val
	}
	return out, nil
}

func (v *View) getString(key string) (string, error) {
	val, err := v.Get(key)
	if err != nil {
		return "", err
	}
	s, ok := val.(string)
	if !ok {
		return "", fieldErr(key, fmt.Errorf("%w: expected string, got %T", ErrInvalidValue, val))
	}
	return s, nil
}

func (v *View) getInt(key string) (int, error) {
	val, err := v.Get(key)
	if err != nil {
		return 0, err
	}
	n, err := toInt(val)
	if err != nil {
		return 0, fieldErr(key, err)
	}
	return n, nil
}

// Int returns key as an int. Any numeric kind that holds an integer is
// accepted, so JSON-decoded float64 values work.
func (v *View) Int(key string) (int, error) {
	return v.getInt(key)
}

// LineValue returns the text of the cursor's line.
func (v *View) LineValue() (string, error) {
	return v.getString(FieldLineValue)
}

// LineBytes returns the UTF-8 encoding of the cursor's line.
func (v *View) LineBytes() ([]byte, error) {
	val, err := v.Get(FieldLineBytes)
	if err != nil {
		return nil, err
	}
	b, ok := val.([]byte)
	if !ok {
		return nil, fieldErr(FieldLineBytes, fmt.Errorf("%w: expected bytes, got %T", ErrInvalidValue, val))
	}
	return b, nil
}

// ColumnCodepoint returns the cursor column as a 1-based codepoint offset.
func (v *View) ColumnCodepoint() (int, error) {
	return v.getInt(FieldColumnCodepoint)
}

// StartColumn returns the completion start as a 1-based byte offset.
func (v *View) StartColumn() (int, error) {
	return v.getInt(FieldStartColumn)
}

// StartCodepoint returns the completion start as a 1-based codepoint offset.
func (v *View) StartCodepoint() (int, error) {
	return v.getInt(FieldStartCodepoint)
}

// SetStartColumn overrides the completion start by byte offset.
func (v *View) SetStartColumn(column int) error {
	return v.Set(FieldStartColumn, column)
}

// SetStartCodepoint overrides the completion start by codepoint offset.
func (v *View) SetStartCodepoint(codepoint int) error {
	return v.Set(FieldStartCodepoint, codepoint)
}

// Query returns the text between the completion start and the cursor.
func (v *View) Query() (string, error) {
	return v.getString(FieldQuery)
}

// Filetypes returns the filetypes declared for the request's file.
func (v *View) Filetypes() ([]string, error) {
	val, err := v.Get(FieldFiletypes)
	if err != nil {
		return nil, err
	}
	fts, ok := val.([]string)
	if !ok {
		return nil, fieldErr(FieldFiletypes, fmt.Errorf("%w: expected list of strings, got %T", ErrInvalidValue, val))
	}
	return fts, nil
}

// FirstFiletype returns the first declared filetype. ok is false when the
// file declares none; err is only set for malformed request data.
func (v *View) FirstFiletype() (filetype string, ok bool, err error) {
	val, err := v.Get(FieldFirstFiletype)
	if err != nil || val == nil {
		return "", false, err
	}
	s, isString := val.(string)
	if !isString {
		return "", false, fieldErr(FieldFirstFiletype, fmt.Errorf("%w: expected string, got %T", ErrInvalidValue, val))
	}
	return s, true, nil
}
