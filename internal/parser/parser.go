// Package parser turns free-form assistant replies into a structured mention model.
// Everything here is pure: no I/O and the same input always yields the same output.
package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	maxSnippetRunes  = 500
	maxCompetitors   = 10
	minCompetitorLen = 2
	maxCompetitorLen = 100
	minVariantLen    = 3
	snippetSentences = 2
)

// Parsed is the structured part of a mention result.
type Parsed struct {
	Mentioned   bool
	Position    *int
	Snippet     *string
	Competitors []string
}

var (
	numberedItem = regexp.MustCompile(`^\s*(?:#+\s*)?(\d{1,3})[.)]\s+(.*)$`)
	hashItem     = regexp.MustCompile(`^\s*#(\d{1,3})\b[.):]?\s*(.*)$`)
	listShaped   = regexp.MustCompile(`^\s*(?:[-•*]\s|\d+\.)`)
	listItem     = regexp.MustCompile(`^\s*(?:#+\s*)?(?:\d{1,3}[.)]|#\d{1,3}[.):]?|[-•*])\s+(.+)$`)
	boldSpan     = regexp.MustCompile(`\*\*([^*\n]+?)\*\*`)
	suffixedName = regexp.MustCompile(`((?:[A-Z0-9][\w'.-]*\s+|&\s+){1,5}(?:Ltd|Limited|LTD|PLC|plc|LLP|Inc|Group|Services|Solutions|Co)\b\.?)`)
	markdownLink = regexp.MustCompile(`^\[([^\]]+)\]\([^)]*\)`)
)

// Parse extracts mention, position, snippet and competitors from raw for companyName.
func Parse(raw, companyName string) Parsed {
	variants := Variants(companyName)
	out := Parsed{Competitors: Competitors(raw, companyName)}

	if len(variants) == 0 || strings.TrimSpace(raw) == "" {
		return out
	}

	plain := strings.ToLower(stripEmphasis(raw))
	if !containsAny(plain, variants) {
		return out
	}

	out.Mentioned = true
	out.Position = findPosition(raw, variants)
	out.Snippet = findSnippet(raw, variants)
	return out
}

func findPosition(raw string, variants []string) *int {
	lines := strings.Split(raw, "\n")

	for _, line := range lines {
		plain := stripEmphasis(line)
		m := numberedItem.FindStringSubmatch(plain)
		if m == nil {
			m = hashItem.FindStringSubmatch(plain)
		}
		if m == nil {
			continue
		}
		if !containsAny(strings.ToLower(plain), variants) {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			continue
		}
		return &n
	}

	count := 0
	for _, line := range lines {
		if !listShaped.MatchString(line) {
			continue
		}
		count++
		if containsAny(strings.ToLower(stripEmphasis(line)), variants) {
			pos := count
			return &pos
		}
	}
	return nil
}

func findSnippet(raw string, variants []string) *string {
	var picked []string
	for _, sentence := range splitSentences(stripEmphasis(raw)) {
		if containsAny(strings.ToLower(sentence), variants) {
			picked = append(picked, sentence)
			if len(picked) == snippetSentences {
				break
			}
		}
	}
	if len(picked) == 0 {
		return nil
	}
	snippet := truncate(strings.Join(picked, " "), maxSnippetRunes)
	return &snippet
}

// Competitors collects other business names from raw, excluding companyName.
// List items are tried first, then bold spans, then capitalised names that end in a
// business suffix; a later source is used only when the earlier ones yield nothing.
func Competitors(raw, companyName string) []string {
	sources := []func(string) []string{fromListItems, fromBold, fromSuffixedNames}
	for _, source := range sources {
		if names := filterCompetitors(source(raw), companyName); len(names) > 0 {
			return names
		}
	}
	return []string{}
}

func filterCompetitors(candidates []string, companyName string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, c := range candidates {
		name := cleanName(c)
		n := utf8.RuneCountInString(name)
		if n < minCompetitorLen || n > maxCompetitorLen {
			continue
		}
		if FuzzyMatch(name, companyName) {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
		if len(out) == maxCompetitors {
			break
		}
	}
	return out
}

var itemSeparators = []string{" — ", " – ", " - ", ": ", " (", ", ", " | ", " —", " –"}

func fromListItems(raw string) []string {
	var names []string
	for _, line := range strings.Split(raw, "\n") {
		m := listItem.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		rest := strings.TrimSpace(m[1])
		if rest == "" {
			continue
		}
		if strings.HasPrefix(rest, "**") {
			if end := strings.Index(rest[2:], "**"); end > 0 {
				names = append(names, rest[2:2+end])
				continue
			}
		}
		if lm := markdownLink.FindStringSubmatch(rest); lm != nil {
			names = append(names, lm[1])
			continue
		}
		name := stripEmphasis(rest)
		for _, sep := range itemSeparators {
			if i := strings.Index(name, sep); i > 0 {
				name = name[:i]
			}
		}
		names = append(names, name)
	}
	return names
}

func fromBold(raw string) []string {
	var names []string
	for _, m := range boldSpan.FindAllStringSubmatch(raw, -1) {
		names = append(names, m[1])
	}
	return names
}

func fromSuffixedNames(raw string) []string {
	var names []string
	for _, m := range suffixedName.FindAllStringSubmatch(stripEmphasis(raw), -1) {
		names = append(names, m[1])
	}
	return names
}

func cleanName(s string) string {
	s = strings.TrimSpace(stripEmphasis(s))
	s = strings.Trim(s, "\"'`_")
	s = strings.TrimRight(s, ".:;,!?")
	return strings.TrimSpace(s)
}

func stripEmphasis(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	return strings.ReplaceAll(s, "__", "")
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit-3])) + "..."
}
