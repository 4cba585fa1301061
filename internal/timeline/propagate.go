package timeline

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ReplaceWord substitutes every whole-word, case-insensitive occurrence of
// old in text with repl. A match inside a longer token is left alone, so
// replacing "Ann" never touches "Anna". Possessives such as "Ann's" do match,
// since the apostrophe is a boundary; other punctuation cases are best effort.
func ReplaceWord(text, old, repl string) (string, bool) {
	spans := wordSpans(text, old)
	if len(spans) == 0 {
		return text, false
	}
	var b strings.Builder
	if n := len(text) + len(spans)*(len(repl)-len(old)); n > 0 {
		b.Grow(n)
	}
	last := 0
	for _, sp := range spans {
		b.WriteString(text[last:sp[0]])
		b.WriteString(repl)
		last = sp[1]
	}
	b.WriteString(text[last:])
	return b.String(), true
}

// ContainsWord reports whether name occurs in text as a whole word, ignoring case.
func ContainsWord(text, name string) bool {
	return len(wordSpans(text, name)) > 0
}

// MentionedNames returns the names that occur in text as whole words, in the order given.
func MentionedNames(text string, names []string) []string {
	var out []string
	for _, n := range names {
		if n != "" && ContainsWord(text, n) {
			out = append(out, n)
		}
	}
	return out
}

// RenameInScene rewrites one scene for a character rename. It reports
// whether anything changed.
func RenameInScene(sc *Scene, r Rename) bool {
	if !r.Propagates() {
		return false
	}
	changed := false

	refs := make([]string, 0, len(sc.CharacterRefs))
	for _, ref := range sc.CharacterRefs {
		if ref == r.Old {
			ref = r.New
			changed = true
		}
		refs = append(refs, ref)
	}
	if changed {
		sc.CharacterRefs = dedupe(refs)
	}

	if t, ok := ReplaceWord(sc.Title, r.Old, r.New); ok {
		sc.Title = t
		changed = true
	}
	if d, ok := ReplaceWord(sc.Description, r.Old, r.New); ok {
		sc.Description = d
		changed = true
	}
	return changed
}

// ApplyRename rewrites every scene for a character rename and returns the
// ids of the scenes that changed.
func (s *Store) ApplyRename(r Rename) []string {
	if !r.Propagates() {
		return nil
	}
	return s.rewrite(func(sc *Scene) bool {
		return RenameInScene(sc, r)
	})
}

func wordSpans(text, word string) [][2]int {
	if word == "" || text == "" {
		return nil
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(word))
	if err != nil {
		return nil
	}

	first, _ := utf8.DecodeRuneInString(word)
	lastRune, _ := utf8.DecodeLastRuneInString(word)
	needLeft := isWordRune(first)
	needRight := isWordRune(lastRune)

	var spans [][2]int
	for _, m := range re.FindAllStringIndex(text, -1) {
		if needLeft && m[0] > 0 {
			prev, _ := utf8.DecodeLastRuneInString(text[:m[0]])
			if isWordRune(prev) {
				continue
			}
		}
		if needRight && m[1] < len(text) {
			next, _ := utf8.DecodeRuneInString(text[m[1]:])
			if isWordRune(next) {
				continue
			}
		}
		spans = append(spans, [2]int{m[0], m[1]})
	}
	return spans
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
