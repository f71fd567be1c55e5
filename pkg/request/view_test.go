package request

import (
	"strings"
	"testing"

	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/reqview/pkg/identifier"
	"github.com/oakwood-commons/reqview/pkg/textutil"
)

const (
	asciiLine     = "foo.bar"
	multiByteLine = "ƒøø.∫å®"
)

func singleFileRequest(contents string, lineNum, columnNum int, filetypes ...string) Request {
	return New("/tmp/a.src", lineNum, columnNum, map[string]FileData{
		"/tmp/a.src": {Contents: contents, Filetypes: filetypes},
	})
}

func mustView(t *testing.T, req Request, opts ...Option) *View {
	t.Helper()
	v, err := NewView(req, true, opts...)
	require.NoError(t, err)
	return v
}

func TestViewASCIIScenario(t *testing.T) {
	v := mustView(t, singleFileRequest(asciiLine, 1, 8, "python"))

	line, err := v.LineValue()
	require.NoError(t, err)
	assert.Equal(t, asciiLine, line)

	startCP, err := v.StartCodepoint()
	require.NoError(t, err)
	assert.Equal(t, 5, startCP)

	startCol, err := v.StartColumn()
	require.NoError(t, err)
	assert.Equal(t, 5, startCol)

	query, err := v.Query()
	require.NoError(t, err)
	assert.Equal(t, "bar", query)
}

func TestViewMultiByteScenario(t *testing.T) {
	cursor := len(multiByteLine) + 1
	v := mustView(t, singleFileRequest(multiByteLine, 1, cursor))

	startCP, err := v.Get(FieldStartCodepoint)
	require.NoError(t, err)
	assert.Equal(t, 5, startCP)

	startCol, err := v.Get(FieldStartColumn)
	require.NoError(t, err)
	assert.NotEqual(t, 5, startCol)
	assert.Equal(t, strings.Index(multiByteLine, "∫")+1, startCol)

	colCP, err := v.ColumnCodepoint()
	require.NoError(t, err)
	assert.Equal(t, 8, colCP)

	query, err := v.Get(FieldQuery)
	require.NoError(t, err)
	assert.Equal(t, "∫å®", query)

	lineBytes, err := v.LineBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte(multiByteLine), lineBytes)
}

func TestViewMultiLineContents(t *testing.T) {
	contents := "import os\r\nos.pa\nlast"
	v := mustView(t, singleFileRequest(contents, 2, 6, "python"))

	line, err := v.LineValue()
	require.NoError(t, err)
	assert.Equal(t, "os.pa", line)

	query, err := v.Query()
	require.NoError(t, err)
	assert.Equal(t, "pa", query)

	// a carriage return before the newline belongs to the line
	v = mustView(t, singleFileRequest(contents, 1, 3))
	line, err = v.LineValue()
	require.NoError(t, err)
	assert.Equal(t, "import os\r", line)
}

func TestViewMemoizesLineValue(t *testing.T) {
	v := mustView(t, singleFileRequest("a\nb.c\n", 2, 4))
	calls := 0
	v.splitLines = func(s string) []string {
		calls++
		return textutil.SplitLines(s)
	}

	first, err := v.Get(FieldLineValue)
	require.NoError(t, err)
	second, err := v.Get(FieldLineValue)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// dependents reuse the cached line
	_, err = v.Query()
	require.NoError(t, err)
	_, err = v.StartColumn()
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestViewSetStartColumn(t *testing.T) {
	cursor := len(multiByteLine) + 1
	v := mustView(t, singleFileRequest(multiByteLine, 1, cursor))

	query, err := v.Query()
	require.NoError(t, err)
	require.Equal(t, "∫å®", query)

	// byte offset of the first 'ø'
	require.NoError(t, v.Set(FieldStartColumn, 3))

	startCP, err := v.StartCodepoint()
	require.NoError(t, err)
	assert.Equal(t, textutil.ByteOffsetToCodepointOffset(multiByteLine, 3), startCP)
	assert.Equal(t, 2, startCP)

	startCol, err := v.StartColumn()
	require.NoError(t, err)
	assert.Equal(t, 3, startCol)

	query, err = v.Query()
	require.NoError(t, err)
	assert.Equal(t, "øø.∫å®", query)
}

func TestViewSetStartColumnInsideCharacter(t *testing.T) {
	cursor := len(multiByteLine) + 1
	v := mustView(t, singleFileRequest(multiByteLine, 1, cursor))

	query, err := v.Query()
	require.NoError(t, err)
	require.Equal(t, "∫å®", query)

	// byte 2 is the second byte of 'ƒ'
	err = v.SetStartColumn(2)
	require.ErrorIs(t, err, ErrInvalidValue)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, FieldStartColumn, fe.Key)

	// the earlier start and query are untouched
	startCol, err := v.StartColumn()
	require.NoError(t, err)
	startCP, err := v.StartCodepoint()
	require.NoError(t, err)
	assert.Equal(t, startCol, textutil.CodepointOffsetToByteOffset(multiByteLine, startCP))
	query, err = v.Query()
	require.NoError(t, err)
	assert.Equal(t, "∫å®", query)
}

func TestViewSetStartCodepoint(t *testing.T) {
	cursor := len(multiByteLine) + 1
	v := mustView(t, singleFileRequest(multiByteLine, 1, cursor))

	_, err := v.Query()
	require.NoError(t, err)

	require.NoError(t, v.SetStartCodepoint(4))

	startCol, err := v.StartColumn()
	require.NoError(t, err)
	assert.Equal(t, textutil.CodepointOffsetToByteOffset(multiByteLine, 4), startCol)
	assert.Equal(t, 7, startCol)

	query, err := v.Query()
	require.NoError(t, err)
	assert.Equal(t, ".∫å®", query)
}

func TestViewOverridesAreSymmetric(t *testing.T) {
	cursor := len(multiByteLine) + 1
	for _, cp := range []int{1, 2, 3, 4, 5, 6, 7, 8} {
		byCodepoint := mustView(t, singleFileRequest(multiByteLine, 1, cursor))
		require.NoError(t, byCodepoint.SetStartCodepoint(cp))
		col, err := byCodepoint.StartColumn()
		require.NoError(t, err)

		byColumn := mustView(t, singleFileRequest(multiByteLine, 1, cursor))
		require.NoError(t, byColumn.SetStartColumn(col))
		gotCP, err := byColumn.StartCodepoint()
		require.NoError(t, err)
		assert.Equal(t, cp, gotCP, "codepoint %d via byte column %d", cp, col)

		q1, err := byCodepoint.Query()
		require.NoError(t, err)
		q2, err := byColumn.Query()
		require.NoError(t, err)
		assert.Equal(t, q1, q2)
	}
}

func TestViewOverrideSurvivesLaterReads(t *testing.T) {
	v := mustView(t, singleFileRequest(asciiLine, 1, 8))
	require.NoError(t, v.Set(FieldStartCodepoint, 1))

	// column_codepoint still reflects the cursor; the override is untouched
	colCP, err := v.ColumnCodepoint()
	require.NoError(t, err)
	assert.Equal(t, 8, colCP)

	startCP, err := v.StartCodepoint()
	require.NoError(t, err)
	assert.Equal(t, 1, startCP)

	query, err := v.Query()
	require.NoError(t, err)
	assert.Equal(t, asciiLine, query)
}

func TestViewQueryEmptyRanges(t *testing.T) {
	tests := []struct {
		name     string
		override int
	}{
		{name: "start at cursor", override: 8},
		{name: "start past cursor", override: 10},
		{name: "start zero", override: 0},
		{name: "start negative", override: -4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := mustView(t, singleFileRequest(asciiLine, 1, 8))
			require.NoError(t, v.SetStartCodepoint(tt.override))
			query, err := v.Query()
			require.NoError(t, err)
			assert.Empty(t, query)
		})
	}
}

func TestViewNoIdentifierBeforeCursor(t *testing.T) {
	v := mustView(t, singleFileRequest("foo.", 1, 5))
	startCP, err := v.StartCodepoint()
	require.NoError(t, err)
	assert.Equal(t, 5, startCP)
	query, err := v.Query()
	require.NoError(t, err)
	assert.Empty(t, query)
}

func TestViewFiletypeSelectsIdentifierRule(t *testing.T) {
	line := "a { -webkit-bo"
	cursor := len(line) + 1

	css := mustView(t, singleFileRequest(line, 1, cursor, "css"))
	q, err := css.Query()
	require.NoError(t, err)
	assert.Equal(t, "-webkit-bo", q)

	plain := mustView(t, singleFileRequest(line, 1, cursor))
	q, err = plain.Query()
	require.NoError(t, err)
	assert.Equal(t, "bo", q)
}

func TestViewWithScanner(t *testing.T) {
	scanner, err := identifier.NewScanner(map[string]string{"cobol": `[A-Za-z][A-Za-z0-9-]*`}, nil)
	require.NoError(t, err)
	line := "MOVE WS-COUNT"
	v := mustView(t, singleFileRequest(line, 1, len(line)+1, "cobol"), WithScanner(scanner))
	q, err := v.Query()
	require.NoError(t, err)
	assert.Equal(t, "WS-COUNT", q)
}

func TestViewReadOnlyFields(t *testing.T) {
	v := mustView(t, singleFileRequest(asciiLine, 1, 8))
	for _, key := range []string{
		FieldLineValue, FieldLineBytes, FieldColumnCodepoint, FieldQuery,
		FieldFiletypes, FieldFirstFiletype, KeyFilepath, KeyLineNum, "unknown",
	} {
		err := v.Set(key, "anything")
		require.ErrorIs(t, err, ErrReadOnlyField, key)
	}
	// nothing was written
	assert.Empty(t, v.cache)
}

func TestViewSetRejectsNonInteger(t *testing.T) {
	v := mustView(t, singleFileRequest(asciiLine, 1, 8))
	require.ErrorIs(t, v.Set(FieldStartColumn, "three"), ErrInvalidValue)
	require.ErrorIs(t, v.Set(FieldStartCodepoint, 2.5), ErrInvalidValue)
	_, cached := v.cache[FieldStartColumn]
	assert.False(t, cached)

	// integral floats are fine
	require.NoError(t, v.Set(FieldStartCodepoint, 2.0))
	col, err := v.StartColumn()
	require.NoError(t, err)
	assert.Equal(t, 2, col)
}

func TestViewRequestSharesRawMap(t *testing.T) {
	req := singleFileRequest(asciiLine, 1, 8)
	v := mustView(t, req)

	raw := v.Request()
	path, ok := raw.Lookup(KeyFilepath)
	require.True(t, ok)
	assert.Equal(t, "/tmp/a.src", path)
	assert.Equal(t, len(req), len(raw))
}

func TestViewGetRawAndMissing(t *testing.T) {
	v := mustView(t, singleFileRequest(asciiLine, 1, 8))

	path, err := v.Get(KeyFilepath)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/a.src", path)
	_, cached := v.cache[KeyFilepath]
	assert.False(t, cached, "raw lookups are not cached")

	_, err = v.Get("no_such_key")
	require.ErrorIs(t, err, ErrKeyNotFound)

	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "no_such_key", fe.Key)
}

func TestViewDerivedShadowsRaw(t *testing.T) {
	req := singleFileRequest(asciiLine, 1, 8)
	req[FieldQuery] = "raw value"
	v := mustView(t, req)
	q, err := v.Get(FieldQuery)
	require.NoError(t, err)
	assert.Equal(t, "bar", q)
}

func TestViewHasHasNoSideEffects(t *testing.T) {
	v := mustView(t, singleFileRequest(asciiLine, 1, 8))
	assert.True(t, v.Has(FieldQuery))
	assert.True(t, v.Has(FieldStartColumn))
	assert.True(t, v.Has(KeyColumnNum))
	assert.False(t, v.Has("no_such_key"))
	assert.Empty(t, v.cache)
}

func TestViewGetOr(t *testing.T) {
	v := mustView(t, singleFileRequest(asciiLine, 1, 8))

	got, err := v.GetOr("no_such_key", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", got)

	got, err = v.GetOr(FieldQuery, "fallback")
	require.NoError(t, err)
	assert.Equal(t, "bar", got)

	// a broken getter is not a missing key
	broken := mustView(t, singleFileRequest(asciiLine, 3, 1))
	_, err = broken.GetOr(FieldLineValue, "fallback")
	require.ErrorIs(t, err, ErrLineOutOfRange)
}

func TestViewGetOrMissingFileRecord(t *testing.T) {
	req := Request{
		KeyFilepath:  "/tmp/missing",
		KeyLineNum:   1,
		KeyColumnNum: 1,
		KeyFileData:  map[string]any{},
	}
	v, err := NewView(req, false)
	require.NoError(t, err)

	got, err := v.GetOr(FieldFiletypes, []string{"text"})
	require.NoError(t, err)
	assert.Equal(t, []string{"text"}, got)
}

func TestViewLineOutOfRange(t *testing.T) {
	for _, lineNum := range []int{0, 3, 100} {
		v := mustView(t, singleFileRequest("one\ntwo", lineNum, 1))
		_, err := v.LineValue()
		require.ErrorIs(t, err, ErrLineOutOfRange, "line_num %d", lineNum)

		_, err = v.Query()
		require.ErrorIs(t, err, ErrLineOutOfRange)
	}
}

func TestViewFirstFiletype(t *testing.T) {
	v := mustView(t, singleFileRequest(asciiLine, 1, 8))
	ft, ok, err := v.FirstFiletype()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, ft)
	raw, err := v.Get(FieldFirstFiletype)
	require.NoError(t, err)
	assert.Nil(t, raw)

	v = mustView(t, singleFileRequest(asciiLine, 1, 8, "cpp", "c"))
	ft, ok, err = v.FirstFiletype()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "cpp", ft)

	fts, err := v.Filetypes()
	require.NoError(t, err)
	assert.Equal(t, []string{"cpp", "c"}, fts)
}

func TestViewFirstFiletypeMissingList(t *testing.T) {
	req := Request{
		KeyFilepath:  "/tmp/a",
		KeyLineNum:   1,
		KeyColumnNum: 4,
		KeyFileData: map[string]any{
			"/tmp/a": map[string]any{KeyContents: "abc"},
		},
	}
	v, err := NewView(req, false)
	require.NoError(t, err)

	_, err = v.Filetypes()
	require.ErrorIs(t, err, ErrKeyNotFound)

	ft, ok, err := v.FirstFiletype()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, ft)

	q, err := v.Query()
	require.NoError(t, err)
	assert.Equal(t, "abc", q)
}

func TestViewFirstFiletypeMalformedListFails(t *testing.T) {
	req := Request{
		KeyFilepath:  "/tmp/a",
		KeyLineNum:   1,
		KeyColumnNum: 1,
		KeyFileData: map[string]any{
			"/tmp/a": map[string]any{KeyContents: "abc", KeyFiletypes: "python"},
		},
	}
	v, err := NewView(req, false)
	require.NoError(t, err)
	_, _, err = v.FirstFiletype()
	require.ErrorIs(t, err, ErrInvalidValue)
}

func TestViewDecodedNumbers(t *testing.T) {
	req := singleFileRequest(asciiLine, 1, 8)
	req[KeyLineNum] = float64(1)
	req[KeyColumnNum] = int64(8)
	v := mustView(t, req)
	q, err := v.Query()
	require.NoError(t, err)
	assert.Equal(t, "bar", q)

	req[KeyColumnNum] = 7.5
	_, err = NewView(req, true)
	require.ErrorIs(t, err, ErrValidation)
}

func TestNewViewValidation(t *testing.T) {
	req := singleFileRequest(asciiLine, 1, 8)
	delete(req, KeyColumnNum)

	v, err := NewView(req, true)
	require.ErrorIs(t, err, ErrValidation)
	assert.Nil(t, v)

	v, err = NewView(req, false)
	require.NoError(t, err)
	_, err = v.Query()
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestViewResolve(t *testing.T) {
	v := mustView(t, singleFileRequest(asciiLine, 1, 8, "go"))
	all, err := v.Resolve()
	require.NoError(t, err)
	assert.Len(t, all, len(v.DerivedFields()))
	assert.Equal(t, "bar", all[FieldQuery])
	assert.Equal(t, "go", all[FieldFirstFiletype])

	some, err := v.Resolve(FieldQuery, KeyFilepath)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{FieldQuery: "bar", KeyFilepath: "/tmp/a.src"}, some)

	_, err = v.Resolve("nope")
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestViewLogsOverrides(t *testing.T) {
	var lines []string
	log := funcr.New(func(prefix, args string) {
		lines = append(lines, args)
	}, funcr.Options{Verbosity: 1})

	v := mustView(t, singleFileRequest(asciiLine, 1, 8), WithLogger(log))
	_, err := v.Query()
	require.NoError(t, err)
	require.NoError(t, v.SetStartColumn(2))

	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "completion start overridden")
	assert.Contains(t, lines[0], `"queryInvalidated"=true`)
}
