// Package request wraps a raw code-completion request in a View that derives
// the fields a completer needs (current line, completion start column, query
// text, filetypes) on demand, caches them for the lifetime of the request, and
// keeps them consistent when a caller overrides the start column.
//
// Positions on the wire are 1-based byte offsets into the UTF-8 encoding of a
// line. Identifier boundaries are found by walking codepoints, so every start
// position is available in both forms: start_column (bytes) and
// start_codepoint (codepoints).
package request

import (
	"encoding/json"
	"fmt"

	"fortio.org/safecast"
)

// Raw request field names.
const (
	KeyFilepath  = "filepath"
	KeyLineNum   = "line_num"
	KeyColumnNum = "column_num"
	KeyFileData  = "file_data"
	KeyContents  = "contents"
	KeyFiletypes = "filetypes"
)

// Request is the raw, immutable request as decoded from the wire. Numbers may
// be of any Go numeric kind; integral values are accepted wherever an integer
// is required.
type Request map[string]any

// FileData describes one buffer of a request built in Go code.
type FileData struct {
	Contents  string
	Filetypes []string
}

// New builds a Request for the buffer at filepath with the cursor at the
// 1-based line and byte column.
func New(filepath string, lineNum, columnNum int, files map[string]FileData) Request {
	fileData := make(map[string]any, len(files))
	for path, fd := range files {
		fileData[path] = map[string]any{
			KeyContents:  fd.Contents,
			KeyFiletypes: append([]string(nil), fd.Filetypes...),
		}
	}
	return Request{
		KeyFilepath:  filepath,
		KeyLineNum:   lineNum,
		KeyColumnNum: columnNum,
		KeyFileData:  fileData,
	}
}

// Lookup returns the raw value stored under key.
func (r Request) Lookup(key string) (any, bool) {
	v, ok := r[key]
	return v, ok
}

func (r Request) lookup(key string) (any, error) {
	v, ok := r[key]
	if !ok {
		return nil, fieldErr(key, ErrKeyNotFound)
	}
	return v, nil
}

func (r Request) str(key string) (string, error) {
	v, err := r.lookup(key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fieldErr(key, fmt.Errorf("%w: expected string, got %T", ErrInvalidValue, v))
	}
	return s, nil
}

func (r Request) integer(key string) (int, error) {
	v, err := r.lookup(key)
	if err != nil {
		return 0, err
	}
	n, err := toInt(v)
	if err != nil {
		return 0, fieldErr(key, err)
	}
	return n, nil
}

// fileRecord returns file_data[filepath].
func (r Request) fileRecord() (map[string]any, error) {
	path, err := r.str(KeyFilepath)
	if err != nil {
		return nil, err
	}
	raw, err := r.lookup(KeyFileData)
	if err != nil {
		return nil, err
	}
	files, ok := asMap(raw)
	if !ok {
		return nil, fieldErr(KeyFileData, fmt.Errorf("%w: expected mapping, got %T", ErrInvalidValue, raw))
	}
	rec, ok := files[path]
	if !ok {
		return nil, fieldErr(KeyFileData+"."+path, ErrKeyNotFound)
	}
	m, ok := asMap(rec)
	if !ok {
		return nil, fieldErr(KeyFileData+"."+path, fmt.Errorf("%w: expected mapping, got %T", ErrInvalidValue, rec))
	}
	return m, nil
}

func (r Request) contents() (string, error) {
	rec, err := r.fileRecord()
	if err != nil {
		return "", err
	}
	v, ok := rec[KeyContents]
	if !ok {
		return "", fieldErr(KeyContents, ErrKeyNotFound)
	}
	s, ok := v.(string)
	if !ok {
		return "", fieldErr(KeyContents, fmt.Errorf("%w: expected string, got %T", ErrInvalidValue, v))
	}
	return s, nil
}

func (r Request) filetypes() ([]string, error) {
	rec, err := r.fileRecord()
	if err != nil {
		return nil, err
	}
	v, ok := rec[KeyFiletypes]
	if !ok {
		return nil, fieldErr(KeyFiletypes, ErrKeyNotFound)
	}
	fts, ok := asStrings(v)
	if !ok {
		return nil, fieldErr(KeyFiletypes, fmt.Errorf("%w: expected list of strings, got %T", ErrInvalidValue, v))
	}
	return fts, nil
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Request:
		return m, true
	default:
		return nil, false
	}
}

func asStrings(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...), true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// toInt converts any integral Go number to int, rejecting fractions and values
// that do not fit.
func toInt(v any) (int, error) {
	var (
		n   int
		err error
	)
	switch x := v.(type) {
	case int:
		return x, nil
	case int8:
		n, err = safecast.Conv[int](x)
	case int16:
		n, err = safecast.Conv[int](x)
	case int32:
		n, err = safecast.Conv[int](x)
	case int64:
		n, err = safecast.Conv[int](x)
	case uint:
		n, err = safecast.Conv[int](x)
	case uint8:
		n, err = safecast.Conv[int](x)
	case uint16:
		n, err = safecast.Conv[int](x)
	case uint32:
		n, err = safecast.Conv[int](x)
	case uint64:
		n, err = safecast.Conv[int](x)
	case float32:
		n, err = safecast.Convert[int](x)
	case float64:
		n, err = safecast.Convert[int](x)
	case json.Number:
		i, perr := x.Int64()
		if perr != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, x.String())
		}
		n, err = safecast.Conv[int](i)
	default:
		return 0, fmt.Errorf("%w: expected integer, got %T", ErrInvalidValue, v)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v is not an integer: %v", ErrInvalidValue, v, err)
	}
	return n, nil
}
