// Package rtf flattens rich text notes to plain text.
package rtf

import (
	"strconv"
	"strings"
	"unicode"
)

// destinations whose content is never visible text.
var skipped = map[string]bool{
	"fonttbl":    true,
	"colortbl":   true,
	"stylesheet": true,
	"info":       true,
	"pict":       true,
	"header":     true,
	"footer":     true,
	"listtable":  true,
	"object":     true,
	"themedata":  true,
	"generator":  true,
}

// Strip returns the plain text content of an RTF document. Input that does not
// start with an RTF group is returned unchanged.
func Strip(text string) string {
	if !strings.HasPrefix(strings.TrimSpace(text), "{\\rtf") {
		return text
	}

	var out strings.Builder
	type frame struct{ skip bool }
	stack := []frame{{}}
	skip := false
	ucSkip := 1
	pendingSkip := 0

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch c {
		case '{':
			stack = append(stack, frame{skip: skip})
		case '}':
			if len(stack) > 1 {
				skip = stack[len(stack)-1].skip
				stack = stack[:len(stack)-1]
			}
		case '\\':
			if i+1 >= len(runes) {
				break
			}
			next := runes[i+1]
			switch {
			case next == '\\' || next == '{' || next == '}':
				if !skip {
					out.WriteRune(next)
				}
				i++
			case next == '*':
				skip = true
				i++
			case next == '\'':
				if i+3 < len(runes) {
					if v, err := strconv.ParseUint(string(runes[i+2:i+4]), 16, 8); err == nil && !skip && pendingSkip == 0 {
						out.WriteRune(rune(v))
					}
					if pendingSkip > 0 {
						pendingSkip--
					}
				}
				i += 3
			case unicode.IsLetter(next):
				j := i + 1
				for j < len(runes) && unicode.IsLetter(runes[j]) {
					j++
				}
				word := string(runes[i+1 : j])
				k := j
				if k < len(runes) && (runes[k] == '-' || unicode.IsDigit(runes[k])) {
					k++
					for k < len(runes) && unicode.IsDigit(runes[k]) {
						k++
					}
				}
				param := string(runes[j:k])
				if k < len(runes) && runes[k] == ' ' {
					k++
				}
				i = k - 1
				if skipped[word] {
					skip = true
					continue
				}
				if skip {
					continue
				}
				switch word {
				case "par", "line":
					out.WriteByte('\n')
				case "tab":
					out.WriteByte('\t')
				case "uc":
					if n, err := strconv.Atoi(param); err == nil {
						ucSkip = n
					}
				case "u":
					if n, err := strconv.Atoi(param); err == nil {
						if n < 0 {
							n += 65536
						}
						out.WriteRune(rune(n))
						pendingSkip = ucSkip
					}
				}
			default:
				// control symbol such as \~ or \-
				if next == '~' && !skip {
					out.WriteRune(' ')
				}
				i++
			}
		case '\r', '\n':
		default:
			if skip {
				continue
			}
			if pendingSkip > 0 {
				pendingSkip--
				continue
			}
			out.WriteRune(c)
		}
	}
	return strings.TrimRightFunc(out.String(), unicode.IsSpace)
}
