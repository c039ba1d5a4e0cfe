package scanner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tendorai/avp/internal/models"
)

// BuyerPrompts returns the three fixed buyer questions, in order.
func BuyerPrompts(label, location string) []string {
	return []string{
		fmt.Sprintf("Who are the best %s in %s?", label, location),
		fmt.Sprintf("I need a %s supplier in %s. Who should I use?", label, location),
		fmt.Sprintf("Can you recommend a good %s company near %s?", label, location),
	}
}

// SystemPrompt frames a group's buyer prompts with the known-supplier context.
func SystemPrompt(label, location, contextBlock string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a helpful assistant answering a UK business buyer looking for %s suppliers in %s. ", label, location)
	b.WriteString("Use web search and your own knowledge to recommend real, currently trading companies. ")
	b.WriteString("Answer with a numbered list of up to 5 companies, best first, each with a one-line reason. ")
	b.WriteString("Respond in plain text, not JSON.")
	if contextBlock != "" {
		fmt.Fprintf(&b, "\n\nSuppliers listed on TendorAI for %s in %s:\n%s", label, location, contextBlock)
	}
	return b.String()
}

// Richness scores how complete a vendor profile is. Higher is richer.
func Richness(v models.Vendor) int {
	score := 0
	switch d := len(strings.TrimSpace(v.Description)); {
	case d >= 200:
		score += 3
	case d >= 50:
		score += 2
	case d > 0:
		score++
	}
	if v.ReviewCount > 0 {
		score += 2
		if v.ReviewCount >= 10 {
			score++
		}
		if v.AverageRating >= 4.5 {
			score++
		}
	}
	score += min(len(v.Certifications), 3)
	switch {
	case v.YearsInBusiness >= 10:
		score += 2
	case v.YearsInBusiness > 0:
		score++
	}
	switch {
	case v.ProductCount >= 10:
		score += 2
	case v.ProductCount > 0:
		score++
	}
	return score
}

// ContextBlock lists up to n of the richest vendors, one digest line each. Ties
// keep input order.
func ContextBlock(vendors []models.Vendor, n int) string {
	ranked := make([]models.Vendor, len(vendors))
	copy(ranked, vendors)
	sort.SliceStable(ranked, func(i, j int) bool {
		return Richness(ranked[i]) > Richness(ranked[j])
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	lines := make([]string, 0, len(ranked))
	for _, v := range ranked {
		lines = append(lines, "- "+Digest(v))
	}
	return strings.Join(lines, "\n")
}

// Digest is a one-line vendor summary.
func Digest(v models.Vendor) string {
	parts := []string{v.Company}
	if v.YearsInBusiness > 0 {
		parts = append(parts, fmt.Sprintf("%d years in business", v.YearsInBusiness))
	}
	if len(v.Specialisations) > 0 {
		parts = append(parts, "specialises in "+strings.Join(head(v.Specialisations, 3), ", "))
	}
	if len(v.Certifications) > 0 {
		parts = append(parts, "certified "+strings.Join(head(v.Certifications, 3), ", "))
	}
	if v.ReviewCount > 0 {
		parts = append(parts, fmt.Sprintf("%.1f/5 from %d reviews", v.AverageRating, v.ReviewCount))
	}
	if len(v.CoverageAreas) > 0 {
		parts = append(parts, "covers "+strings.Join(head(v.CoverageAreas, 3), ", "))
	}
	return strings.Join(parts, " | ")
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
