// Package research produces a full visibility report for one company by asking a
// web-search capable model to audit its online presence and local competitors.
package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/tendorai/avp/internal/categories"
	"github.com/tendorai/avp/internal/llm"
	"github.com/tendorai/avp/internal/models"
	"github.com/tendorai/avp/internal/parser"
	"github.com/tendorai/avp/internal/scoring"
	"github.com/tendorai/avp/internal/siteprobe"
)

const (
	minSummaryLen  = 20
	maxCompetitors = 5
	maxGaps        = 6
	basicItems     = 3
	maxAIPosition  = 10
	researchTokens = 4096
)

// CompetitorDirectory counts listed vendors in a category and city, excluding the
// company being researched.
type CompetitorDirectory interface {
	CountListed(ctx context.Context, category, city, excludeCompany string) (int, error)
}

// WebsiteProber inspects a company website.
type WebsiteProber interface {
	Probe(ctx context.Context, url string) (*siteprobe.Findings, error)
}

// Agent generates reports.
type Agent struct {
	provider  llm.Provider
	policy    llm.Policy
	directory CompetitorDirectory
	prober    WebsiteProber
	now       func() time.Time
}

// NewAgent creates an agent. directory and prober may be nil.
func NewAgent(provider llm.Provider, directory CompetitorDirectory, prober WebsiteProber) *Agent {
	return &Agent{
		provider:  provider,
		policy:    llm.ResearchPolicy,
		directory: directory,
		prober:    prober,
		now:       time.Now,
	}
}

// WithPolicy replaces the retry policy.
func (a *Agent) WithPolicy(p llm.Policy) *Agent {
	a.policy = p
	return a
}

type payload struct {
	SearchedCompany models.SearchedCompany `json:"searchedCompany"`
	Competitors     []models.Competitor    `json:"competitors"`
	Gaps            []models.Gap           `json:"gaps"`
	AIMentioned     bool                   `json:"aiMentioned"`
	AIPosition      *int                   `json:"aiPosition"`
}

var (
	errNoJSON        = errors.New("no JSON object in response")
	errNoCompetitors = errors.New("no competitors")
	errNoGaps        = errors.New("no gaps")
	errShortSummary  = errors.New("summary too short")
)

// GenerateFullReport researches t and returns a scored report. Validation
// failures are retried once with stricter instructions; a second failure is a
// ResearchError. Rate limits are handled by the retry policy.
func (a *Agent) GenerateFullReport(ctx context.Context, t models.Triple, rt models.ReportType) (*models.ReportData, error) {
	t = t.Normalize()
	if err := ValidateTriple(t); err != nil {
		return nil, err
	}
	if rt == "" {
		rt = models.ReportTypeFull
	}

	system := buildSystemPrompt(t, rt)
	user := buildUserPrompt(t)
	opts := llm.DefaultCompletionOptions()
	opts.MaxTokens = researchTokens
	opts.WebSearch = true

	var (
		p       *payload
		lastErr error
	)
	for attempt := 0; attempt < 2; attempt++ {
		prompt := system
		if attempt > 0 {
			prompt += stricterNote
		}

		raw, err := llm.Do(ctx, a.policy, func(ctx context.Context) (string, error) {
			return a.provider.CompleteWithSystem(ctx, prompt, user, opts)
		})
		if err != nil {
			return nil, fmt.Errorf("research call for %q: %w", t.CompanyName, err)
		}

		p, lastErr = parseResponse(raw)
		if lastErr == nil {
			lastErr = validatePayload(p, t.CompanyName)
		}
		if lastErr == nil {
			break
		}
		log.Warn().Err(lastErr).Str("company", t.CompanyName).Int("attempt", attempt+1).Msg("research response rejected")
	}
	if lastErr != nil {
		return nil, &models.ResearchError{CompanyName: t.CompanyName, Err: lastErr}
	}

	report := a.assemble(ctx, t, rt, p)
	scoring.Apply(report)

	log.Info().
		Str("company", t.CompanyName).
		Str("category", t.Category).
		Str("city", t.City).
		Int("score", report.Score).
		Int("competitors", len(report.Competitors)).
		Msg("research complete")

	return report, nil
}

func (a *Agent) assemble(ctx context.Context, t models.Triple, rt models.ReportType, p *payload) *models.ReportData {
	compLimit, gapLimit := maxCompetitors, maxGaps
	if rt == models.ReportTypeBasic {
		compLimit, gapLimit = basicItems, basicItems
	}

	sc := p.SearchedCompany
	sc.Summary = strings.TrimSpace(sc.Summary)
	if sc.Website != "" {
		if u, err := siteprobe.Normalize(sc.Website); err == nil {
			sc.Website = u
		} else {
			sc.Website = ""
		}
	}

	report := &models.ReportData{
		CompanyName:     t.CompanyName,
		Category:        t.Category,
		City:            t.City,
		Email:           t.Email,
		AIMentioned:     p.AIMentioned,
		SearchedCompany: sc,
		Competitors:     cleanCompetitors(p.Competitors, t.CompanyName, compLimit),
		Gaps:            cleanGaps(p.Gaps, gapLimit),
		ReportType:      rt,
		CreatedAt:       a.now().UTC().Truncate(time.Second),
	}
	if report.AIMentioned {
		report.AIPosition = clampPosition(p.AIPosition)
	}

	a.corroborate(ctx, report)

	if a.directory != nil {
		n, err := a.directory.CountListed(ctx, t.Category, t.City, t.CompanyName)
		if err != nil {
			log.Warn().Err(err).Str("category", t.Category).Str("city", t.City).Msg("directory count failed")
		} else {
			report.CompetitorsOnTendorAI = n
		}
	}
	return report
}

// corroborate upgrades on-page signals the model missed. It never downgrades.
func (a *Agent) corroborate(ctx context.Context, report *models.ReportData) {
	if a.prober == nil || report.SearchedCompany.Website == "" {
		return
	}
	f, err := a.prober.Probe(ctx, report.SearchedCompany.Website)
	if err != nil {
		log.Debug().Err(err).Str("url", report.SearchedCompany.Website).Msg("website probe failed")
		return
	}
	sc := &report.SearchedCompany
	if f.StructuredData && !models.Truthy(sc.HasStructuredData) {
		sc.HasStructuredData = models.BoolPtr(true)
	}
	if f.SocialMedia && !models.Truthy(sc.HasSocialMedia) {
		sc.HasSocialMedia = models.BoolPtr(true)
	}
	if f.Pricing && !models.Truthy(sc.HasPricing) {
		sc.HasPricing = models.BoolPtr(true)
	}
}

// ValidateTriple checks the request key.
func ValidateTriple(t models.Triple) error {
	switch {
	case t.CompanyName == "":
		return &models.ValidationError{Field: "companyName", Msg: "is required"}
	case t.City == "":
		return &models.ValidationError{Field: "city", Msg: "is required"}
	case t.Category == "":
		return &models.ValidationError{Field: "category", Msg: "is required"}
	case !categories.Valid(t.Category):
		return &models.ValidationError{Field: "category", Msg: fmt.Sprintf("%q is not a supported category", t.Category)}
	}
	return nil
}

var fencedJSON = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

func parseResponse(response string) (*payload, error) {
	response = strings.TrimSpace(response)

	if m := fencedJSON.FindStringSubmatch(response); len(m) > 1 {
		response = m[1]
	}

	var p payload
	if err := json.Unmarshal([]byte(response), &p); err != nil {
		start := strings.Index(response, "{")
		end := strings.LastIndex(response, "}")
		if start < 0 || end <= start {
			return nil, errNoJSON
		}
		if err := json.Unmarshal([]byte(response[start:end+1]), &p); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}
	return &p, nil
}

// validatePayload counts only competitors that survive self-exclusion.
func validatePayload(p *payload, companyName string) error {
	var named int
	for _, c := range p.Competitors {
		name := strings.TrimSpace(c.Name)
		if name != "" && !parser.FuzzyMatch(name, companyName) {
			named++
		}
	}
	var titled int
	for _, g := range p.Gaps {
		if strings.TrimSpace(g.Title) != "" {
			titled++
		}
	}
	switch {
	case named == 0:
		return errNoCompetitors
	case titled == 0:
		return errNoGaps
	case utf8.RuneCountInString(strings.TrimSpace(p.SearchedCompany.Summary)) < minSummaryLen:
		return errShortSummary
	}
	return nil
}

func cleanCompetitors(in []models.Competitor, companyName string, limit int) []models.Competitor {
	out := make([]models.Competitor, 0, limit)
	seen := map[string]bool{}
	for _, c := range in {
		c.Name = strings.TrimSpace(c.Name)
		key := strings.ToLower(c.Name)
		if c.Name == "" || seen[key] || parser.FuzzyMatch(c.Name, companyName) {
			continue
		}
		seen[key] = true
		if c.Website != "" {
			if u, err := siteprobe.Normalize(c.Website); err == nil {
				c.Website = u
			} else {
				c.Website = ""
			}
		}
		if c.Strengths == nil {
			c.Strengths = []string{}
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out
}

func cleanGaps(in []models.Gap, limit int) []models.Gap {
	out := make([]models.Gap, 0, limit)
	for _, g := range in {
		g.Title = strings.TrimSpace(g.Title)
		if g.Title == "" {
			continue
		}
		g.Explanation = strings.TrimSpace(g.Explanation)
		out = append(out, g)
		if len(out) == limit {
			break
		}
	}
	return out
}

// clampPosition keeps a mentioned company's position within 1..10. An unranked
// mention is placed last.
func clampPosition(p *int) *int {
	v := maxAIPosition
	if p != nil {
		v = *p
	}
	if v < 1 {
		v = 1
	}
	if v > maxAIPosition {
		v = maxAIPosition
	}
	return &v
}
