package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// parseArgv splits a command template shell-style. Whitespace separates
// words, single quotes are literal, double quotes honor \" and \\, and a
// bare backslash escapes the next rune. A value starting with # disables
// the command.
func parseArgv(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.HasPrefix(input, "#") {
		return nil, nil
	}

	var (
		argv   []string
		word   strings.Builder
		inWord bool
	)
	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			if inWord {
				argv = append(argv, word.String())
				word.Reset()
				inWord = false
			}
		case r == '\\':
			i++
			if i == len(runes) {
				return nil, fmt.Errorf("unterminated escape sequence in command: %q", input)
			}
			word.WriteRune(runes[i])
			inWord = true
		case r == '\'' || r == '"':
			end := closingQuote(runes, i+1, r)
			if end < 0 {
				return nil, fmt.Errorf("unterminated quote in command: %q", input)
			}
			word.WriteString(unquote(runes[i+1:end], r))
			inWord = true
			i = end
		default:
			word.WriteRune(r)
			inWord = true
		}
	}
	if inWord {
		argv = append(argv, word.String())
	}
	return argv, nil
}

func closingQuote(runes []rune, from int, quote rune) int {
	for i := from; i < len(runes); i++ {
		switch {
		case quote == '"' && runes[i] == '\\':
			i++
		case runes[i] == quote:
			return i
		}
	}
	return -1
}

func unquote(body []rune, quote rune) string {
	if quote == '\'' {
		return string(body)
	}
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) && (body[i+1] == '"' || body[i+1] == '\\') {
			i++
		}
		b.WriteRune(body[i])
	}
	return b.String()
}

func mustParseArgv(input string) []string {
	argv, err := parseArgv(input)
	if err != nil {
		panic(err)
	}
	return argv
}

var placeholderPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// placeholders lists the {name} tokens used across argv in first-seen order.
func placeholders(argv []string) []string {
	var names []string
	for _, arg := range argv {
		for _, m := range placeholderPattern.FindAllStringSubmatch(arg, -1) {
			if !slices.Contains(names, m[1]) {
				names = append(names, m[1])
			}
		}
	}
	return names
}

// unknownPlaceholders returns the placeholders in argv that are not allowed.
func unknownPlaceholders(argv []string, allowed ...string) []string {
	var unknown []string
	for _, name := range placeholders(argv) {
		if !slices.Contains(allowed, name) {
			unknown = append(unknown, "{"+name+"}")
		}
	}
	return unknown
}
