package request

import (
	"errors"
	"fmt"

	"github.com/oakwood-commons/reqview/pkg/textutil"
)

// Derived field names.
const (
	// FieldLineValue is the text of the cursor's line.
	FieldLineValue = "line_value"
	// FieldLineBytes is the UTF-8 encoding of line_value.
	FieldLineBytes = "line_bytes"
	// FieldColumnCodepoint is column_num as a codepoint offset into line_value.
	FieldColumnCodepoint = "column_codepoint"
	// FieldStartColumn is the completion start as a byte offset into line_bytes.
	FieldStartColumn = "start_column"
	// FieldStartCodepoint is the completion start as a codepoint offset into
	// line_value.
	FieldStartCodepoint = "start_codepoint"
	// FieldQuery is the text from the completion start up to the cursor.
	FieldQuery = "query"
	// FieldFiletypes is the list of filetypes declared for the file.
	FieldFiletypes = "filetypes"
	// FieldFirstFiletype is the first declared filetype, or nil.
	FieldFirstFiletype = "first_filetype"
)

// fieldOrder lists derived fields so that each comes after its dependencies.
var fieldOrder = []string{
	FieldFiletypes,
	FieldFirstFiletype,
	FieldLineValue,
	FieldLineBytes,
	FieldColumnCodepoint,
	FieldStartCodepoint,
	FieldStartColumn,
	FieldQuery,
}

// derivedField pairs a getter with an optional setter. A nil setter makes the
// field read-only. Setters write the cache themselves.
type derivedField struct {
	get func() (any, error)
	set func(any) error
}

func (v *View) registry() map[string]derivedField {
	return map[string]derivedField{
		FieldLineValue:       {get: v.currentLine},
		FieldLineBytes:       {get: v.lineBytes},
		FieldColumnCodepoint: {get: v.columnCodepoint},
		FieldStartColumn:     {get: v.startColumn, set: v.setStartColumn},
		FieldStartCodepoint:  {get: v.startCodepoint, set: v.setStartCodepoint},
		FieldQuery:           {get: v.query},
		FieldFiletypes:       {get: v.filetypes},
		FieldFirstFiletype:   {get: v.firstFiletype},
	}
}

func (v *View) currentLine() (any, error) {
	contents, err := v.req.contents()
	if err != nil {
		return nil, err
	}
	lineNum, err := v.getInt(KeyLineNum)
	if err != nil {
		return nil, err
	}
	lines := v.splitLines(contents)
	if lineNum < 1 || lineNum > len(lines) {
		return nil, fmt.Errorf("%w: line_num %d, file has %d lines", ErrLineOutOfRange, lineNum, len(lines))
	}
	return lines[lineNum-1], nil
}

func (v *View) lineBytes() (any, error) {
	line, err := v.LineValue()
	if err != nil {
		return nil, err
	}
	return textutil.ToBytes(line), nil
}

func (v *View) columnCodepoint() (any, error) {
	b, err := v.LineBytes()
	if err != nil {
		return nil, err
	}
	column, err := v.getInt(KeyColumnNum)
	if err != nil {
		return nil, err
	}
	return textutil.ByteOffsetToCodepointOffset(textutil.ToUnicode(b), column), nil
}

// startInputs gathers what the start-position algorithm reads.
func (v *View) startInputs() (line string, column int, filetype string, err error) {
	if line, err = v.LineValue(); err != nil {
		return "", 0, "", err
	}
	if column, err = v.getInt(KeyColumnNum); err != nil {
		return "", 0, "", err
	}
	if filetype, _, err = v.FirstFiletype(); err != nil {
		return "", 0, "", err
	}
	return line, column, filetype, nil
}

func (v *View) startColumn() (any, error) {
	line, column, filetype, err := v.startInputs()
	if err != nil {
		return nil, err
	}
	return CompletionStartColumn(line, column, filetype, v.scanner), nil
}

func (v *View) startCodepoint() (any, error) {
	line, column, filetype, err := v.startInputs()
	if err != nil {
		return nil, err
	}
	return CompletionStartCodepoint(line, column, filetype, v.scanner), nil
}

// setStartColumn caches the byte offset together with its codepoint
// equivalent. The codepoint getter would derive the start from the cursor
// column and undo the override, so it must not run.
func (v *View) setStartColumn(value any) error {
	column, err := toInt(value)
	if err != nil {
		return err
	}
	line, err := v.LineValue()
	if err != nil {
		return err
	}
	if !textutil.IsCharBoundary(line, column) {
		return fmt.Errorf("%w: byte offset %d is inside a multi-byte character", ErrInvalidValue, column)
	}
	codepoint := textutil.ByteOffsetToCodepointOffset(line, column)
	v.overrideStart(column, codepoint)
	return nil
}

// setStartCodepoint mirrors setStartColumn.
func (v *View) setStartCodepoint(value any) error {
	codepoint, err := toInt(value)
	if err != nil {
		return err
	}
	line, err := v.LineValue()
	if err != nil {
		return err
	}
	column := textutil.CodepointOffsetToByteOffset(line, codepoint)
	v.overrideStart(column, codepoint)
	return nil
}

func (v *View) overrideStart(column, codepoint int) {
	v.cache[FieldStartColumn] = column
	v.cache[FieldStartCodepoint] = codepoint
	_, hadQuery := v.cache[FieldQuery]
	delete(v.cache, FieldQuery)
	v.log.V(1).Info("completion start overridden",
		FieldStartColumn, column,
		FieldStartCodepoint, codepoint,
		"queryInvalidated", hadQuery)
}

func (v *View) query() (any, error) {
	line, err := v.LineValue()
	if err != nil {
		return nil, err
	}
	start, err := v.StartCodepoint()
	if err != nil {
		return nil, err
	}
	end, err := v.ColumnCodepoint()
	if err != nil {
		return nil, err
	}
	if start < 1 {
		return "", nil
	}
	return textutil.CodepointSlice(line, start-1, end-1), nil
}

func (v *View) filetypes() (any, error) {
	return v.req.filetypes()
}

// firstFiletype turns a missing or empty filetype list into nil. Malformed
// data still fails.
func (v *View) firstFiletype() (any, error) {
	fts, err := v.Filetypes()
	switch {
	case errors.Is(err, ErrKeyNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	case len(fts) == 0:
		return nil, nil
	}
	return fts[0], nil
}
