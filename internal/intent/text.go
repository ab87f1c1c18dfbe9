package intent

import "strings"

// normalize lower-cases s and collapses runs of whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// clean trims surrounding whitespace and sentence punctuation and
// collapses inner whitespace.
func clean(s string) string {
	s = strings.Trim(s, " \t.,!?;:\"'")
	return strings.Join(strings.Fields(s), " ")
}

// removeAll deletes every occurrence of each phrase, in order.
func removeAll(s string, phrases ...string) string {
	for _, p := range phrases {
		s = strings.ReplaceAll(s, p, " ")
	}
	return clean(s)
}

// stripLeading repeatedly drops any of words from the front of s.
func stripLeading(s string, words ...string) string {
	for {
		s = clean(s)
		trimmed := false
		for _, w := range words {
			if s == w {
				return ""
			}
			if rest, ok := strings.CutPrefix(s, w+" "); ok {
				s = rest
				trimmed = true
				break
			}
		}
		if !trimmed {
			return s
		}
	}
}

// stripTrailing repeatedly drops any of words from the end of s.
func stripTrailing(s string, words ...string) string {
	for {
		s = clean(s)
		trimmed := false
		for _, w := range words {
			if s == w {
				return ""
			}
			if rest, ok := strings.CutSuffix(s, " "+w); ok {
				s = rest
				trimmed = true
				break
			}
		}
		if !trimmed {
			return s
		}
	}
}

// after returns the text following the first occurrence of sep.
func after(s, sep string) (string, bool) {
	i := strings.Index(s, sep)
	if i < 0 {
		return "", false
	}
	return s[i+len(sep):], true
}

// before returns the text preceding the first occurrence of sep.
func before(s, sep string) (string, bool) {
	i := strings.Index(s, sep)
	if i < 0 {
		return "", false
	}
	return s[:i], true
}

// indexPhrase finds phrase in s as a whole-word run: it must not start
// or end inside a longer word. It returns -1 when absent.
func indexPhrase(s, phrase string) int {
	for from := 0; from <= len(s)-len(phrase); {
		i := strings.Index(s[from:], phrase)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(phrase)
		if (i == 0 || !isLetter(s[i-1])) && (end == len(s) || !isLetter(s[end])) {
			return i
		}
		from = i + 1
	}
	return -1
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z'
}
