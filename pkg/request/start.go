package request

import (
	"github.com/oakwood-commons/reqview/pkg/identifier"
	"github.com/oakwood-commons/reqview/pkg/textutil"
)

// CompletionStartCodepoint returns the 1-based codepoint offset at which the
// completion query on line begins, given the cursor's 1-based byte column.
// For
//
//	ƒøø.∫å®^
//
// with the cursor after '®', the result is 5, the offset of '∫'. A nil
// scanner uses the built-in identifier rules.
func CompletionStartCodepoint(line string, columnNum int, filetype string, scanner *identifier.Scanner) int {
	if scanner == nil {
		scanner = identifier.Default()
	}
	cursor := textutil.ByteOffsetToCodepointOffset(line, columnNum)
	// the scanner works on 0-based indices
	return scanner.StartOfLongestIdentifierEndingAtIndex(line, cursor-1, filetype) + 1
}

// CompletionStartColumn returns the 1-based byte offset at which the
// completion query on line begins. On lines with multi-byte characters this is
// not a character index; use CompletionStartCodepoint for character
// arithmetic.
func CompletionStartColumn(line string, columnNum int, filetype string, scanner *identifier.Scanner) int {
	return textutil.CodepointOffsetToByteOffset(line, CompletionStartCodepoint(line, columnNum, filetype, scanner))
}
