// Package textutil provides the UTF-8 primitives used to translate between the
// byte offsets that arrive on the wire and the codepoint offsets needed to walk
// characters within a line.
//
// All offsets are 1-based. Offsets at or below zero denote no position and are
// returned unchanged; offsets past the end of the text clamp to the whole text.
package textutil

import (
	"strings"
	"unicode/utf8"
)

// ToBytes returns the UTF-8 encoding of s.
func ToBytes(s string) []byte {
	return []byte(s)
}

// ToUnicode decodes UTF-8 bytes into a string. Invalid sequences are replaced
// with U+FFFD so that codepoint walks never see partial characters.
func ToUnicode(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}

// SplitLines splits text on '\n' only. A '\r' preceding the newline stays part
// of the line and a lone '\r' is not a line boundary. Empty text is one empty
// line.
func SplitLines(text string) []string {
	return strings.Split(text, "\n")
}

// ByteOffsetToCodepointOffset converts a 1-based byte offset into text into the
// equivalent 1-based codepoint offset.
func ByteOffsetToCodepointOffset(text string, byteOffset int) int {
	if byteOffset <= 0 {
		return byteOffset
	}
	prefix := byteOffset - 1
	if prefix > len(text) {
		prefix = len(text)
	}
	return utf8.RuneCountInString(text[:prefix]) + 1
}

// IsCharBoundary reports whether the 1-based byteOffset into text falls on the
// first byte of a character. Offsets at or below one and past the end of the
// text are boundaries.
func IsCharBoundary(text string, byteOffset int) bool {
	if byteOffset <= 1 || byteOffset > len(text) {
		return true
	}
	return utf8.RuneStart(text[byteOffset-1])
}

// CodepointOffsetToByteOffset converts a 1-based codepoint offset into text
// into the equivalent 1-based byte offset into its UTF-8 encoding.
func CodepointOffsetToByteOffset(text string, codepointOffset int) int {
	if codepointOffset <= 0 {
		return codepointOffset
	}
	remaining := codepointOffset - 1
	n := 0
	for remaining > 0 && n < len(text) {
		_, size := utf8.DecodeRuneInString(text[n:])
		n += size
		remaining--
	}
	return n + 1
}

// CodepointSlice returns the codepoints of text in the 0-based half-open range
// [start, end). The range is clamped to the text and an empty or inverted range
// yields "".
func CodepointSlice(text string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if start >= end {
		return ""
	}
	from, to := -1, len(text)
	i := 0
	for off := range text {
		if i == start {
			from = off
		}
		if i == end {
			to = off
			break
		}
		i++
	}
	if from < 0 {
		return ""
	}
	return text[from:to]
}
