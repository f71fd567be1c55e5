package identifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOfLongestIdentifierEndingAtIndex(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		index    int
		filetype string
		want     int
	}{
		{name: "member access", text: "foo.bar", index: 7, want: 4},
		{name: "whole line", text: "foobar", index: 6, want: 0},
		{name: "middle of word", text: "foobar", index: 3, want: 0},
		{name: "multi-byte identifier", text: "ƒøø.∫å®", index: 7, want: 4},
		{name: "nothing before cursor", text: "foo.", index: 4, want: 4},
		{name: "after space", text: "foo ", index: 4, want: 4},
		{name: "digits are not a start", text: "a 123", index: 5, want: 5},
		{name: "underscore start", text: "x = _private", index: 12, want: 4},
		{name: "default rejects dash", text: "foo -zoo", index: 8, want: 5},
		{name: "css keeps dash", text: "foo -zoo", index: 8, filetype: "css", want: 4},
		{name: "scss aliases css", text: "foo -zoo", index: 8, filetype: "scss", want: 4},
		{name: "haskell prime", text: "let foo'", index: 8, filetype: "haskell", want: 4},
		{name: "default rejects prime", text: "let foo'", index: 8, want: 8},
		{name: "tex allows digits", text: "a 123", index: 5, filetype: "tex", want: 2},
		{name: "html stops at dot", text: "<div.cls", index: 8, filetype: "html", want: 5},
		{name: "clojure namespace", text: "(str/join", index: 9, filetype: "clojure", want: 1},
		{name: "unknown filetype uses default", text: "foo.bar", index: 7, filetype: "cobol", want: 4},
		{name: "index zero", text: "foo", index: 0, want: 0},
		{name: "negative index", text: "foo", index: -1, want: -1},
		{name: "index past end", text: "foo", index: 5, want: 5},
		{name: "empty text", text: "", index: 1, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StartOfLongestIdentifierEndingAtIndex(tt.text, tt.index, tt.filetype)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsIdentifier(t *testing.T) {
	assert.True(t, IsIdentifier("foo", ""))
	assert.True(t, IsIdentifier("_foo9", ""))
	assert.True(t, IsIdentifier("ƒøø", ""))
	assert.False(t, IsIdentifier("9foo", ""))
	assert.False(t, IsIdentifier("", ""))
	assert.False(t, IsIdentifier("foo.bar", ""))
	assert.True(t, IsIdentifier("-webkit-box", "css"))
	assert.False(t, IsIdentifier("-webkit-box", "python"))
	assert.False(t, IsIdentifier("f", "haskell"))
}

func TestNewScannerCustomRulesAndAliases(t *testing.T) {
	s, err := NewScanner(
		map[string]string{"cobol": `[A-Za-z][A-Za-z0-9-]*`},
		map[string]string{"postcss": "css", "copybook": "cobol"},
	)
	require.NoError(t, err)

	assert.Equal(t, 5, s.StartOfLongestIdentifierEndingAtIndex("MOVE WS-COUNT", 13, "cobol"))
	assert.Equal(t, 5, s.StartOfLongestIdentifierEndingAtIndex("MOVE WS-COUNT", 13, "copybook"))
	assert.Equal(t, 4, s.StartOfLongestIdentifierEndingAtIndex("foo -zoo", 8, "postcss"))
	// built-ins survive the overlay
	assert.Equal(t, 4, s.StartOfLongestIdentifierEndingAtIndex("foo -zoo", 8, "css"))
	assert.Contains(t, s.Filetypes(), "cobol")
	assert.Contains(t, s.Filetypes(), "postcss")
	assert.Contains(t, s.Filetypes(), "less")
}

func TestNewScannerOverridesBuiltin(t *testing.T) {
	s, err := NewScanner(map[string]string{"css": DefaultPattern}, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, s.StartOfLongestIdentifierEndingAtIndex("foo -zoo", 8, "css"))
	// the default scanner is untouched
	assert.Equal(t, 4, Default().StartOfLongestIdentifierEndingAtIndex("foo -zoo", 8, "css"))
}

func TestNewScannerRejectsBadPattern(t *testing.T) {
	_, err := NewScanner(map[string]string{"broken": `[a-z`}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"broken"`)
}
