// Package models defines the core data structures used throughout the application.
package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Platform identifies a consumer AI assistant.
type Platform string

const (
	PlatformChatGPT    Platform = "chatgpt"
	PlatformPerplexity Platform = "perplexity"
	PlatformGemini     Platform = "gemini"
	PlatformMeta       Platform = "meta"
	PlatformGrok       Platform = "grok"
	PlatformClaude     Platform = "claude"
)

// AllPlatforms lists every platform in the order results are presented.
var AllPlatforms = []Platform{
	PlatformChatGPT,
	PlatformPerplexity,
	PlatformGemini,
	PlatformMeta,
	PlatformGrok,
	PlatformClaude,
}

// Label returns the display name of the platform.
func (p Platform) Label() string {
	switch p {
	case PlatformChatGPT:
		return "ChatGPT"
	case PlatformPerplexity:
		return "Perplexity"
	case PlatformGemini:
		return "Google Gemini"
	case PlatformMeta:
		return "Meta AI"
	case PlatformGrok:
		return "Grok"
	case PlatformClaude:
		return "Claude"
	}
	return string(p)
}

// Triple is the request key for a visibility check.
type Triple struct {
	CompanyName string `json:"companyName"`
	Category    string `json:"category"`
	City        string `json:"city"`
	Email       string `json:"email,omitempty"`
}

// Normalize trims surrounding whitespace from every field.
func (t Triple) Normalize() Triple {
	return Triple{
		CompanyName: strings.TrimSpace(t.CompanyName),
		Category:    strings.TrimSpace(strings.ToLower(t.Category)),
		City:        strings.TrimSpace(t.City),
		Email:       strings.TrimSpace(t.Email),
	}
}

// MentionResult is the outcome of asking one platform about one triple.
type MentionResult struct {
	Platform      Platform `json:"platform"`
	PlatformLabel string   `json:"platformLabel"`
	Mentioned     bool     `json:"mentioned"`
	Position      *int     `json:"position"`
	Snippet       *string  `json:"snippet"`
	Competitors   []string `json:"competitors"`
	RawResponse   string   `json:"rawResponse"`
	Error         *string  `json:"error"`
}

// ReportType distinguishes research depth.
type ReportType string

const (
	ReportTypeBasic ReportType = "basic"
	ReportTypeFull  ReportType = "full"
)

// ScoreBreakdown holds the six scoring dimensions, each 0..17.
type ScoreBreakdown struct {
	WebsiteOptimisation int `json:"websiteOptimisation"`
	ContentAuthority    int `json:"contentAuthority"`
	DirectoryPresence   int `json:"directoryPresence"`
	ReviewSignals       int `json:"reviewSignals"`
	StructuredData      int `json:"structuredData"`
	CompetitivePosition int `json:"competitivePosition"`
}

// Sum adds all six dimensions.
func (b ScoreBreakdown) Sum() int {
	return b.WebsiteOptimisation + b.ContentAuthority + b.DirectoryPresence +
		b.ReviewSignals + b.StructuredData + b.CompetitivePosition
}

// SearchedCompany captures what the research model found about the subject company.
type SearchedCompany struct {
	Website             string `json:"website,omitempty"`
	HasReviews          *bool  `json:"hasReviews,omitempty"`
	HasPricing          *bool  `json:"hasPricing,omitempty"`
	HasBrands           *bool  `json:"hasBrands,omitempty"`
	HasStructuredData   *bool  `json:"hasStructuredData,omitempty"`
	HasDetailedServices *bool  `json:"hasDetailedServices,omitempty"`
	HasSocialMedia      *bool  `json:"hasSocialMedia,omitempty"`
	HasGoogleBusiness   *bool  `json:"hasGoogleBusiness,omitempty"`
	Summary             string `json:"summary"`
}

// Competitor is a named business the AI assistants recommend instead.
type Competitor struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Reason      string   `json:"reason"`
	Website     string   `json:"website,omitempty"`
	Strengths   []string `json:"strengths"`
}

// Gap is a concrete reason the company is not being recommended.
type Gap struct {
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
}

// ReportData is the full visibility report for one triple.
type ReportData struct {
	CompanyName           string          `json:"companyName"`
	Category              string          `json:"category"`
	City                  string          `json:"city"`
	Email                 string          `json:"email,omitempty"`
	AIMentioned           bool            `json:"aiMentioned"`
	AIPosition            *int            `json:"aiPosition"`
	Score                 int             `json:"score"`
	ScoreBreakdown        ScoreBreakdown  `json:"scoreBreakdown"`
	SearchedCompany       SearchedCompany `json:"searchedCompany"`
	Competitors           []Competitor    `json:"competitors"`
	Gaps                  []Gap           `json:"gaps"`
	CompetitorsOnTendorAI int             `json:"competitorsOnTendorAI"`
	PlatformResults       []MentionResult `json:"platformResults,omitempty"`
	ReportType            ReportType      `json:"reportType"`
	CreatedAt             time.Time       `json:"createdAt"`
}

// PersistedReport is a stored report. It is written once and never mutated.
type PersistedReport struct {
	ReportData
	ID        string `json:"id"`
	VendorID  string `json:"vendorId,omitempty"`
	PDF       []byte `json:"-"`
	IPAddress string `json:"-"`
}

// ScanPosition buckets a numeric list position.
type ScanPosition string

const (
	PositionFirst        ScanPosition = "first"
	PositionTop3         ScanPosition = "top3"
	PositionMentioned    ScanPosition = "mentioned"
	PositionNotMentioned ScanPosition = "not_mentioned"
)

// PositionFromRank maps a 1-based rank (nil when unseen) to its bucket.
func PositionFromRank(mentioned bool, rank *int) ScanPosition {
	if !mentioned {
		return PositionNotMentioned
	}
	if rank == nil {
		return PositionMentioned
	}
	switch {
	case *rank == 1:
		return PositionFirst
	case *rank <= 3:
		return PositionTop3
	default:
		return PositionMentioned
	}
}

// ScanSource records how a mention record was produced.
type ScanSource string

const (
	SourceWeeklyScan ScanSource = "weekly_scan"
	SourceLiveTest   ScanSource = "live_test"
)

// MentionScanRecord is one vendor's outcome for one prompt on one scan date.
type MentionScanRecord struct {
	ID                   int64        `json:"id,omitempty"`
	VendorID             string       `json:"vendorId"`
	ScanDate             time.Time    `json:"scanDate"`
	Prompt               string       `json:"prompt"`
	Mentioned            bool         `json:"mentioned"`
	Position             ScanPosition `json:"position"`
	AIModel              string       `json:"aiModel"`
	CompetitorsMentioned []string     `json:"competitorsMentioned"`
	Category             string       `json:"category"`
	Location             string       `json:"location"`
	ResponseSnippet      string       `json:"responseSnippet"`
	Source               ScanSource   `json:"source"`
}

// MaxSnippetRunes bounds MentionScanRecord.ResponseSnippet.
const MaxSnippetRunes = 500

// ClipSnippet truncates s to MaxSnippetRunes runes.
func ClipSnippet(s string) string {
	if utf8.RuneCountInString(s) <= MaxSnippetRunes {
		return s
	}
	return string([]rune(s)[:MaxSnippetRunes])
}

// Tier is a vendor subscription tier.
type Tier string

const (
	TierFree    Tier = "free"
	TierStarter Tier = "starter"
	TierPro     Tier = "pro"
)

// PaidTiers are the tiers included in batch workflows.
var PaidTiers = []Tier{TierStarter, TierPro}

// Vendor is the subset of a directory listing the pipeline reads.
type Vendor struct {
	ID              string    `json:"id"`
	Company         string    `json:"company"`
	Email           string    `json:"email,omitempty"`
	Tier            Tier      `json:"tier"`
	City            string    `json:"city,omitempty"`
	CoverageAreas   []string  `json:"coverageAreas,omitempty"`
	Services        []string  `json:"services,omitempty"`
	PracticeAreas   []string  `json:"practiceAreas,omitempty"`
	Description     string    `json:"description,omitempty"`
	YearsInBusiness int       `json:"yearsInBusiness,omitempty"`
	Specialisations []string  `json:"specialisations,omitempty"`
	Certifications  []string  `json:"certifications,omitempty"`
	ReviewCount     int       `json:"reviewCount,omitempty"`
	AverageRating   float64   `json:"averageRating,omitempty"`
	ProductCount    int       `json:"productCount,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ReportRequest is the request body for synchronous report generation.
type ReportRequest struct {
	CompanyName string     `json:"companyName"`
	Category    string     `json:"category"`
	City        string     `json:"city"`
	Email       string     `json:"email,omitempty"`
	VendorID    string     `json:"vendorId,omitempty"`
	ReportType  ReportType `json:"reportType,omitempty"`
}

// Triple returns the request key.
func (r ReportRequest) Triple() Triple {
	return Triple{CompanyName: r.CompanyName, Category: r.Category, City: r.City, Email: r.Email}.Normalize()
}

// BatchReportRequest is the request body for admin batch generation.
type BatchReportRequest struct {
	Reports []ReportRequest `json:"reports"`
}

// BatchItemResult is the per-item outcome of an admin batch.
type BatchItemResult struct {
	CompanyName string `json:"companyName"`
	Success     bool   `json:"success"`
	ReportID    string `json:"reportId,omitempty"`
	Score       *int   `json:"score,omitempty"`
	Error       string `json:"error,omitempty"`
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }

// IntPtr returns a pointer to i.
func IntPtr(i int) *int { return &i }

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// Truthy dereferences an optional flag, treating nil as false.
func Truthy(b *bool) bool { return b != nil && *b }
