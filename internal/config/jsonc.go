package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// stripJSONC blanks comments and trailing commas with spaces. The output has
// the same length and line breaks as src, so decoder offsets point into the
// original file.
func stripJSONC(src string) (string, error) {
	out := []byte(src)
	lastComma := -1

	for i := 0; i < len(out); i++ {
		switch c := out[i]; {
		case c == '"':
			i = stringEnd(out, i)
			lastComma = -1
		case c == '/' && i+1 < len(out) && out[i+1] == '/':
			end := bytes.IndexAny(out[i:], "\r\n")
			if end < 0 {
				end = len(out) - i
			}
			blank(out[i : i+end])
			i += end - 1
		case c == '/' && i+1 < len(out) && out[i+1] == '*':
			end := bytes.Index(out[i+2:], []byte("*/"))
			if end < 0 {
				return "", errors.New("unterminated block comment in JSONC")
			}
			blank(out[i : i+2+end+2])
			i += 2 + end + 1
		case c == ',':
			lastComma = i
		case c == '}' || c == ']':
			if lastComma >= 0 {
				out[lastComma] = ' '
			}
			lastComma = -1
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
		default:
			lastComma = -1
		}
	}
	return string(out), nil
}

// stringEnd returns the index of the quote closing the string opened at
// start, or the last index when the string never closes.
func stringEnd(b []byte, start int) int {
	for i := start + 1; i < len(b); i++ {
		switch b[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return len(b) - 1
}

// blank overwrites everything but line breaks and tabs with spaces.
func blank(b []byte) {
	for i, c := range b {
		if c != '\n' && c != '\r' && c != '\t' {
			b[i] = ' '
		}
	}
}

// decodeStrict decodes exactly one JSON value into v, rejecting unknown
// fields and anything after the value.
func decodeStrict(src string, v any) error {
	decoder := json.NewDecoder(strings.NewReader(src))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return err
	}

	var extra json.RawMessage
	switch err := decoder.Decode(&extra); {
	case errors.Is(err, io.EOF):
		return nil
	case err == nil:
		return errors.New("multiple JSON values are not allowed")
	default:
		return err
	}
}

// withPosition prefixes syntax and type errors with the line and column they
// refer to.
func withPosition(src string, err error) error {
	var offset int64
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return err
	}
	line, col := lineCol(src, offset)
	return fmt.Errorf("line %d column %d: %w", line, col, err)
}

// lineCol maps a 1-based decoder offset to a 1-based line and column.
func lineCol(src string, offset int64) (int, int) {
	n := int(min(max(offset-1, 0), int64(len(src))))
	before := src[:n]
	return strings.Count(before, "\n") + 1, n - strings.LastIndexByte(before, '\n')
}
