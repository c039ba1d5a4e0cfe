package parser

import (
	"regexp"
	"strings"
	"unicode"
)

var legalSuffixes = map[string]bool{
	"ltd":      true,
	"limited":  true,
	"plc":      true,
	"inc":      true,
	"llp":      true,
	"uk":       true,
	"group":    true,
	"services": true,
}

// Variants returns the lowercased forms of companyName that count as a mention:
// the exact name, the name with trailing legal suffixes removed, and the first two
// words of a name with three or more words. Variants shorter than three characters
// are dropped.
func Variants(companyName string) []string {
	exact := strings.Join(strings.Fields(strings.ToLower(companyName)), " ")
	if exact == "" {
		return nil
	}

	candidates := []string{exact}

	words := strings.Fields(exact)
	if stripped := stripSuffixes(words); len(stripped) > 0 && len(stripped) < len(words) {
		candidates = append(candidates, strings.Join(stripped, " "))
	}
	if len(words) >= 3 {
		candidates = append(candidates, strings.Join(words[:2], " "))
	}

	var out []string
	seen := make(map[string]bool)
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if len([]rune(c)) < minVariantLen || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func stripSuffixes(words []string) []string {
	end := len(words)
	for end > 0 {
		w := strings.Trim(words[end-1], ".,")
		if !legalSuffixes[w] {
			break
		}
		end--
	}
	return words[:end]
}

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}]+`)

func normaliseName(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "&", " and ")
	s = nonWord.ReplaceAllString(s, " ")
	words := stripSuffixes(strings.Fields(s))
	return strings.Join(words, " ")
}

// FuzzyMatch reports whether candidate names the same business as companyName.
func FuzzyMatch(candidate, companyName string) bool {
	a := normaliseName(candidate)
	b := normaliseName(companyName)
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	pa, pb := " "+a+" ", " "+b+" "
	if len(a) >= minVariantLen && strings.Contains(pb, pa) {
		return true
	}
	if len(b) >= minVariantLen && strings.Contains(pa, pb) {
		return true
	}
	for _, v := range Variants(companyName) {
		if nv := normaliseName(v); nv != "" && strings.Contains(pa, " "+nv+" ") {
			return true
		}
	}
	return false
}

var abbreviations = map[string]bool{
	"ltd": true, "co": true, "inc": true, "st": true, "dr": true, "mr": true, "mrs": true,
}

// splitSentences splits text per line into sentences ending in '.', '!' or '?'.
func splitSentences(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, splitLine(line)...)
	}
	return out
}

func splitLine(line string) []string {
	var out []string
	runes := []rune(line)
	start := 0
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		atEnd := i == len(runes)-1
		if !atEnd && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if r == '.' && !atEnd && noBreakBefore(runes[start:i]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if start < len(runes) {
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// noBreakBefore reports whether a period following head ends a list number or an
// abbreviation rather than a sentence.
func noBreakBefore(head []rune) bool {
	s := strings.TrimSpace(string(head))
	if s == "" {
		return true
	}
	fields := strings.Fields(s)
	last := strings.ToLower(fields[len(fields)-1])
	if len(fields) == 1 && isDigits(last) {
		return true
	}
	return abbreviations[last]
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
