package research

import (
	"fmt"
	"strings"

	"github.com/tendorai/avp/internal/categories"
	"github.com/tendorai/avp/internal/models"
)

const stricterNote = `

IMPORTANT: your previous answer could not be used. Respond with ONE JSON object only,
no prose before or after it, no markdown fences. "competitors" and "gaps" must be
non-empty arrays and "searchedCompany.summary" must be at least two full sentences.`

func counts(rt models.ReportType) (competitors, gaps string) {
	if rt == models.ReportTypeBasic {
		return "exactly 3", "exactly 3"
	}
	return "3 to 5", "3 to 6"
}

func buildSystemPrompt(t models.Triple, rt models.ReportType) string {
	terms := categories.TermsFor(t.Category)
	competitorCount, gapCount := counts(rt)

	var checklist strings.Builder
	for _, item := range categories.Checklist(t.Category) {
		fmt.Fprintf(&checklist, "- %s: %s\n", item.Signal, item.Label)
	}

	return fmt.Sprintf(`You are an AI visibility analyst for UK %s. You check how visible a business is
to AI assistants such as ChatGPT, Perplexity, Gemini and Claude when a %s asks for a
recommendation.

Use web search to research the business and its local market. Then:

1. Check its online presence against these signals and record each as true or false:
%s
2. Identify %s real, named competitors in the same city that AI assistants are likely
   to recommend instead. For each give the website, a one-sentence description, the
   reason assistants favour it, and 2-4 short strengths.
3. List %s concrete visibility gaps, each with a short title and an explanation of
   why it stops assistants recommending this business.
4. Imagine a %s asking an assistant for a %s in the city. Decide whether this business
   would appear (aiMentioned) and at which list position from 1 to 10 (aiPosition).

Only name businesses you found evidence for. Never invent websites.

Respond with a JSON object in exactly this shape:
{
  "searchedCompany": {
    "website": "https://...",
    "hasReviews": true,
    "hasPricing": false,
    "hasBrands": true,
    "hasStructuredData": false,
    "hasDetailedServices": true,
    "hasSocialMedia": true,
    "hasGoogleBusiness": true,
    "summary": "Two or three sentences on what AI assistants can learn about the business."
  },
  "competitors": [
    {"name": "...", "website": "https://...", "description": "...", "reason": "...", "strengths": ["..."]}
  ],
  "gaps": [
    {"title": "...", "explanation": "..."}
  ],
  "aiMentioned": false,
  "aiPosition": null
}

Only respond with the JSON object, no other text.`,
		terms.Plural, terms.Customer, checklist.String(), competitorCount, gapCount, terms.Customer, terms.Singular)
}

func buildUserPrompt(t models.Triple) string {
	return fmt.Sprintf("Business: %s\nCategory: %s\nCity: %s, UK", t.CompanyName, categories.Label(t.Category), t.City)
}
