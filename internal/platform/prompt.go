package platform

import (
	"fmt"

	"github.com/tendorai/avp/internal/categories"
	"github.com/tendorai/avp/internal/models"
)

// BuildPrompt returns the buyer question sent to every platform. The text is
// identical across providers so mention rates stay comparable.
func BuildPrompt(t models.Triple) string {
	return fmt.Sprintf(
		"A potential customer asks: 'Can you recommend a good %s in %s?' "+
			"List up to 5 specific companies you'd recommend, with a brief reason for each. "+
			"If you would include %s, include it in your list. Respond in plain text, not JSON.",
		categories.Label(t.Category), t.City, t.CompanyName)
}
