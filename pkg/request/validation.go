package request

import (
	"errors"
	"fmt"

	"github.com/oakwood-commons/reqview/pkg/textutil"
)

var requiredFields = []string{KeyLineNum, KeyColumnNum, KeyFilepath, KeyFileData}

// ValidateRequest checks that req carries everything a View needs: the cursor
// position, the file path, and a file_data record for that path with its
// contents and filetypes. The first problem found is returned as a
// *ValidationError.
func ValidateRequest(req Request) error {
	if req == nil {
		return &ValidationError{Path: "request", Reason: "request is empty"}
	}
	for _, key := range requiredFields {
		if _, ok := req[key]; !ok {
			return &ValidationError{Path: key, Reason: "missing required field"}
		}
	}
	for _, key := range []string{KeyLineNum, KeyColumnNum} {
		if _, err := req.integer(key); err != nil {
			return &ValidationError{Path: key, Reason: unwrapReason(err)}
		}
	}
	path, err := req.str(KeyFilepath)
	if err != nil {
		return &ValidationError{Path: KeyFilepath, Reason: unwrapReason(err)}
	}
	files, ok := asMap(req[KeyFileData])
	if !ok {
		return &ValidationError{Path: KeyFileData, Reason: "expected a mapping of file path to file record"}
	}
	recPath := KeyFileData + "." + path
	raw, ok := files[path]
	if !ok {
		return &ValidationError{Path: recPath, Reason: "no file record for filepath"}
	}
	rec, ok := asMap(raw)
	if !ok {
		return &ValidationError{Path: recPath, Reason: "expected a mapping"}
	}
	contents, ok := rec[KeyContents]
	if !ok {
		return &ValidationError{Path: recPath + "." + KeyContents, Reason: "missing required field"}
	}
	text, ok := contents.(string)
	if !ok {
		return &ValidationError{Path: recPath + "." + KeyContents, Reason: "expected a string"}
	}
	fts, ok := rec[KeyFiletypes]
	if !ok {
		return &ValidationError{Path: recPath + "." + KeyFiletypes, Reason: "missing required field"}
	}
	if _, ok := asStrings(fts); !ok {
		return &ValidationError{Path: recPath + "." + KeyFiletypes, Reason: "expected a list of strings"}
	}
	return validateColumn(req, text)
}

// validateColumn rejects a column_num that points inside a multi-byte
// character of the cursor's line. An out-of-range line_num is left to the
// line_value getter.
func validateColumn(req Request, contents string) error {
	lineNum, _ := req.integer(KeyLineNum)
	column, _ := req.integer(KeyColumnNum)
	lines := textutil.SplitLines(contents)
	if lineNum < 1 || lineNum > len(lines) {
		return nil
	}
	if !textutil.IsCharBoundary(lines[lineNum-1], column) {
		return &ValidationError{
			Path:   KeyColumnNum,
			Reason: fmt.Sprintf("byte offset %d is inside a multi-byte character", column),
		}
	}
	return nil
}

// unwrapReason drops the FieldError prefix; ValidationError names the path.
func unwrapReason(err error) string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Err.Error()
	}
	return err.Error()
}
