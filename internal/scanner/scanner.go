// Package scanner runs the weekly mention scan: paid vendors are grouped by service
// and location, each group is put to a web-search model with three buyer prompts,
// and every vendor in the group gets one mention record per prompt.
package scanner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tendorai/avp/internal/categories"
	"github.com/tendorai/avp/internal/config"
	"github.com/tendorai/avp/internal/llm"
	"github.com/tendorai/avp/internal/models"
	"github.com/tendorai/avp/internal/parser"
)

const (
	defaultContextVendors = 20
	maxLocations          = 2
	scanTokens            = 1024
	scanTemperature       = 0.3
)

// Store is the persistence the scanner needs.
type Store interface {
	ListVendorsByTier(ctx context.Context, tiers ...models.Tier) ([]models.Vendor, error)
	InsertMentionScans(ctx context.Context, records []models.MentionScanRecord) (int, error)
}

// RecordObserver is told about every record written.
type RecordObserver interface {
	ObserveScanRecord(mentioned bool)
}

// Summary tallies one run.
type Summary struct {
	Vendors      int
	Groups       int
	FailedGroups int
	Records      int
	Mentioned    int
	Inserted     int
}

// Scanner runs weekly scans.
type Scanner struct {
	provider       llm.Provider
	store          Store
	model          string
	policy         llm.Policy
	pacer          llm.Pacer
	contextVendors int
	dedupe         bool
	observer       RecordObserver
	now            func() time.Time
}

// New creates a scanner. model is recorded on every record as the answering model.
func New(cfg config.ScannerConfig, model string, provider llm.Provider, store Store) *Scanner {
	n := cfg.MaxContextVendors
	if n <= 0 {
		n = defaultContextVendors
	}
	if model == "" {
		model = provider.Name()
	}
	return &Scanner{
		provider:       provider,
		store:          store,
		model:          model,
		policy:         llm.SearchChatPolicy,
		pacer:          llm.NewPacer(cfg.Pause),
		contextVendors: n,
		dedupe:         cfg.Dedupe,
		now:            time.Now,
	}
}

// WithPolicy replaces the retry policy.
func (s *Scanner) WithPolicy(p llm.Policy) *Scanner {
	s.policy = p
	return s
}

// WithPacer replaces the inter-prompt pacer.
func (s *Scanner) WithPacer(p llm.Pacer) *Scanner {
	s.pacer = p
	return s
}

// WithObserver attaches a record observer.
func (s *Scanner) WithObserver(o RecordObserver) *Scanner {
	s.observer = o
	return s
}

// group is the set of vendors sharing a service and location.
type group struct {
	key      string
	category string
	label    string
	location string
	vendors  []models.Vendor
}

// Run scans every paid vendor. A failing group is recorded as not mentioned for
// each of its vendors and the run continues. Cancelling ctx stops the run after
// the in-flight group; collected records are still written.
func (s *Scanner) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	vendors, err := s.store.ListVendorsByTier(ctx, models.PaidTiers...)
	if err != nil {
		return sum, fmt.Errorf("failed to list vendors: %w", err)
	}
	sum.Vendors = len(vendors)

	groups := groupVendors(vendors)
	scanDate := s.now().UTC().Truncate(time.Second)
	log.Info().Int("vendors", len(vendors)).Int("groups", len(groups)).Msg("Weekly mention scan started")

	work := context.WithoutCancel(ctx)
	var records []models.MentionScanRecord
	for _, g := range groups {
		if ctx.Err() != nil {
			log.Warn().Int("remaining", len(groups)-sum.Groups).Msg("Mention scan interrupted, writing collected records")
			break
		}
		sum.Groups++

		recs, err := s.scanGroup(work, g, scanDate)
		if err != nil {
			sum.FailedGroups++
			log.Error().Err(err).Str("group", g.key).Int("vendors", len(g.vendors)).Msg("Mention scan group failed")
		} else {
			log.Info().Str("group", g.key).Int("vendors", len(g.vendors)).Int("records", len(recs)).Msg("Mention scan group complete")
		}
		records = append(records, recs...)
	}

	if s.dedupe {
		records = Dedupe(records)
	}
	for _, r := range records {
		if r.Mentioned {
			sum.Mentioned++
		}
	}
	sum.Records = len(records)

	if len(records) > 0 {
		inserted, err := s.store.InsertMentionScans(work, records)
		sum.Inserted = inserted
		if err != nil {
			log.Error().Err(err).Int("inserted", inserted).Int("records", len(records)).Msg("Some mention records failed to insert")
		}
	}
	if s.observer != nil && sum.Inserted == len(records) {
		for _, r := range records {
			s.observer.ObserveScanRecord(r.Mentioned)
		}
	}

	log.Info().
		Int("groups", sum.Groups).
		Int("failed_groups", sum.FailedGroups).
		Int("records", sum.Records).
		Int("inserted", sum.Inserted).
		Int("mentioned", sum.Mentioned).
		Msg("Weekly mention scan complete")
	return sum, nil
}

// scanGroup runs the buyer prompts for g. On failure it returns exactly one
// not-mentioned record per vendor carrying the error, plus the error.
func (s *Scanner) scanGroup(ctx context.Context, g group, scanDate time.Time) ([]models.MentionScanRecord, error) {
	system := SystemPrompt(g.label, g.location, ContextBlock(g.vendors, s.contextVendors))

	var records []models.MentionScanRecord
	for _, prompt := range BuyerPrompts(g.label, g.location) {
		if err := s.pacer.Wait(ctx); err != nil {
			return s.failGroup(g, prompt, scanDate, err), err
		}
		reply, err := llm.Do(ctx, s.policy, func(ctx context.Context) (string, error) {
			return s.provider.CompleteWithSystem(ctx, system, prompt, llm.CompletionOptions{
				MaxTokens:   scanTokens,
				Temperature: scanTemperature,
				WebSearch:   true,
			})
		})
		s.pacer.Done()
		if err != nil {
			return s.failGroup(g, prompt, scanDate, err), err
		}

		for _, v := range g.vendors {
			p := parser.Parse(reply, v.Company)
			snippet := ""
			if p.Snippet != nil {
				snippet = *p.Snippet
			}
			competitors := p.Competitors
			if competitors == nil {
				competitors = []string{}
			}
			records = append(records, models.MentionScanRecord{
				VendorID:             v.ID,
				ScanDate:             scanDate,
				Prompt:               prompt,
				Mentioned:            p.Mentioned,
				Position:             models.PositionFromRank(p.Mentioned, p.Position),
				AIModel:              s.model,
				CompetitorsMentioned: competitors,
				Category:             g.category,
				Location:             g.location,
				ResponseSnippet:      snippet,
				Source:               models.SourceWeeklyScan,
			})
		}
	}
	return records, nil
}

func (s *Scanner) failGroup(g group, prompt string, scanDate time.Time, err error) []models.MentionScanRecord {
	records := make([]models.MentionScanRecord, 0, len(g.vendors))
	for _, v := range g.vendors {
		records = append(records, models.MentionScanRecord{
			VendorID:             v.ID,
			ScanDate:             scanDate,
			Prompt:               prompt,
			Mentioned:            false,
			Position:             models.PositionNotMentioned,
			AIModel:              s.model,
			CompetitorsMentioned: []string{},
			Category:             g.category,
			Location:             g.location,
			ResponseSnippet:      models.ClipSnippet("Error: " + err.Error()),
			Source:               models.SourceWeeklyScan,
		})
	}
	return records
}

// Locations returns a vendor's primary locations: its city, else its first two
// coverage areas.
func Locations(v models.Vendor) []string {
	if city := strings.TrimSpace(v.City); city != "" {
		return []string{city}
	}
	var out []string
	for _, a := range v.CoverageAreas {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
		if len(out) == maxLocations {
			break
		}
	}
	return out
}

// serviceKey maps a listed service to its category slug and scan label.
func serviceKey(service string) (category, label string) {
	if slug, ok := categories.FromName(service); ok {
		c, _ := categories.Get(slug)
		return slug, c.ScanLabel
	}
	s := strings.ToLower(strings.TrimSpace(service))
	return s, s
}

// groupVendors buckets vendors by (service, location). Groups are returned sorted by key
// and each vendor appears at most once per group, in input order.
func groupVendors(vendors []models.Vendor) []group {
	byKey := make(map[string]*group)
	for _, v := range vendors {
		locs := Locations(v)
		for _, service := range v.Services {
			category, label := serviceKey(service)
			if category == "" {
				continue
			}
			for _, loc := range locs {
				key := category + "|" + strings.ToLower(loc)
				g, ok := byKey[key]
				if !ok {
					g = &group{key: key, category: category, label: label, location: loc}
					byKey[key] = g
				}
				if !hasVendor(g.vendors, v.ID) {
					g.vendors = append(g.vendors, v)
				}
			}
		}
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]group, 0, len(keys))
	for _, k := range keys {
		out = append(out, *byKey[k])
	}
	return out
}

func hasVendor(vs []models.Vendor, id string) bool {
	for _, v := range vs {
		if v.ID == id {
			return true
		}
	}
	return false
}

// Dedupe keeps the first record for each (vendor, scan date, prompt).
func Dedupe(records []models.MentionScanRecord) []models.MentionScanRecord {
	seen := make(map[string]bool, len(records))
	out := records[:0:0]
	for _, r := range records {
		k := r.VendorID + "\x00" + r.ScanDate.Format(time.RFC3339) + "\x00" + r.Prompt
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}
