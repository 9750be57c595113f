package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
)

const regexFlags = "dgimsuvy"

var (
	// first escape of a word character, '.' or '*'
	firstEscape = regexp2.MustCompile(`\\([0-9a-z.*])`, regexp2.ECMAScript|regexp2.IgnoreCase)
	// four backslashes in string encoding are two backslashes in the pattern
	doubledEscape = regexp2.MustCompile(`\\\\\\\\([0-9a-z.*])`, regexp2.ECMAScript|regexp2.IgnoreCase)
)

// regexValue materializes a /pattern/flags literal as a $regex document.
// The pattern is validated with JavaScript semantics.
func regexValue(literal string) (map[string]any, error) {
	end := strings.LastIndexByte(literal, '/')
	if !strings.HasPrefix(literal, "/") || end < 1 {
		return nil, fmt.Errorf("%w %s", ErrInvalidRegex, literal)
	}

	pattern, flags := literal[1:end], literal[end+1:]

	options, err := regexOptions(flags)
	if err != nil {
		return nil, err
	}

	if _, err := regexp2.Compile(pattern, options); err != nil {
		return nil, fmt.Errorf("%w /%s/: %s", ErrInvalidRegex, pattern, err)
	}

	escaped, err := escapePattern(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w /%s/: %s", ErrInvalidRegex, pattern, err)
	}

	return map[string]any{"$regex": escaped, "$options": flags}, nil
}

func regexOptions(flags string) (regexp2.RegexOptions, error) {
	options := regexp2.RegexOptions(regexp2.ECMAScript)

	for i, flag := range flags {
		if !strings.ContainsRune(regexFlags, flag) || strings.ContainsRune(flags[:i], flag) {
			return 0, fmt.Errorf("%w '%s'", ErrInvalidRegexFlags, flags)
		}

		switch flag {
		case 'i':
			options |= regexp2.IgnoreCase
		case 'm':
			options |= regexp2.Multiline
		}
	}

	return options, nil
}

// escapePattern reproduces how the mongo shell passes a pattern through a
// string round trip: the first escape sequence gets its backslash doubled, and
// escapes that end up doubled twice are collapsed again.
func escapePattern(pattern string) (string, error) {
	escaped, err := firstEscape.Replace(pattern, `\\$1`, -1, 1)
	if err != nil {
		return "", err
	}

	var encoded bytes.Buffer

	encoder := json.NewEncoder(&encoded)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(escaped); err != nil {
		return "", err
	}

	collapsed, err := doubledEscape.Replace(strings.TrimSpace(encoded.String()), `\\$1`, -1, -1)
	if err != nil {
		return "", err
	}

	var result string
	if err := json.Unmarshal([]byte(collapsed), &result); err != nil {
		return "", err
	}

	return result, nil
}
