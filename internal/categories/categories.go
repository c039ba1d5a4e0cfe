// Package categories holds the fixed category enumeration and the lookup tables
// derived from it: display labels, copy terms, checklist wording and the reverse
// maps from vendor services and practice areas.
package categories

import (
	"regexp"
	"strings"
)

// Class groups categories that share report language.
type Class string

const (
	ClassOfficeEquipment Class = "office-equipment"
	ClassLegal           Class = "legal"
	ClassAccounting      Class = "accounting"
	ClassMortgage        Class = "mortgage"
	ClassEstateAgency    Class = "estate-agency"
)

// Category is one entry of the fixed enumeration.
type Category struct {
	Slug string
	// Label is the singular phrase used in prompts ("photocopier supplier").
	Label string
	// Plural is used in report copy ("photocopier suppliers").
	Plural string
	// ScanLabel is the short noun used by the weekly buyer prompts.
	ScanLabel string
	// Display is the title-cased name shown on the report cover.
	Display string
	Class   Class
}

// Terms adapts report copy to a category.
type Terms struct {
	Singular     string
	Plural       string
	Professional string
	Customer     string
}

var all = []Category{
	{"copiers", "photocopier supplier", "photocopier suppliers", "photocopier", "Photocopiers & Printers", ClassOfficeEquipment},
	{"telecoms", "business telecoms provider", "business telecoms providers", "telecoms", "Business Telecoms", ClassOfficeEquipment},
	{"cctv", "CCTV installer", "CCTV installers", "CCTV", "CCTV & Security", ClassOfficeEquipment},
	{"it", "IT support company", "IT support companies", "IT support", "IT Services", ClassOfficeEquipment},

	{"conveyancing", "conveyancing solicitor", "conveyancing solicitors", "conveyancing", "Conveyancing", ClassLegal},
	{"family-law", "family law solicitor", "family law solicitors", "family law", "Family Law", ClassLegal},
	{"criminal-law", "criminal defence solicitor", "criminal defence solicitors", "criminal law", "Criminal Law", ClassLegal},
	{"commercial-law", "commercial law firm", "commercial law firms", "commercial law", "Commercial Law", ClassLegal},
	{"employment-law", "employment law solicitor", "employment law solicitors", "employment law", "Employment Law", ClassLegal},
	{"wills-and-probate", "wills and probate solicitor", "wills and probate solicitors", "wills and probate", "Wills & Probate", ClassLegal},
	{"immigration", "immigration solicitor", "immigration solicitors", "immigration", "Immigration", ClassLegal},
	{"personal-injury", "personal injury solicitor", "personal injury solicitors", "personal injury", "Personal Injury", ClassLegal},

	{"tax-advisory", "tax adviser", "tax advisers", "tax advisory", "Tax Advisory", ClassAccounting},
	{"audit-assurance", "audit firm", "audit firms", "audit", "Audit & Assurance", ClassAccounting},
	{"bookkeeping", "bookkeeper", "bookkeepers", "bookkeeping", "Bookkeeping", ClassAccounting},
	{"payroll", "payroll provider", "payroll providers", "payroll", "Payroll", ClassAccounting},
	{"corporate-finance", "corporate finance adviser", "corporate finance advisers", "corporate finance", "Corporate Finance", ClassAccounting},
	{"business-advisory", "business adviser", "business advisers", "business advisory", "Business Advisory", ClassAccounting},
	{"vat-services", "VAT accountant", "VAT accountants", "VAT", "VAT Services", ClassAccounting},
	{"financial-planning", "financial planner", "financial planners", "financial planning", "Financial Planning", ClassAccounting},

	{"residential-mortgages", "mortgage adviser", "mortgage advisers", "mortgage", "Residential Mortgages", ClassMortgage},
	{"buy-to-let", "buy-to-let mortgage broker", "buy-to-let mortgage brokers", "buy-to-let mortgage", "Buy-to-Let Mortgages", ClassMortgage},
	{"remortgage", "remortgage broker", "remortgage brokers", "remortgage", "Remortgaging", ClassMortgage},
	{"first-time-buyer", "first-time buyer mortgage adviser", "first-time buyer mortgage advisers", "first-time buyer mortgage", "First-Time Buyer Mortgages", ClassMortgage},
	{"equity-release", "equity release adviser", "equity release advisers", "equity release", "Equity Release", ClassMortgage},
	{"commercial-mortgages", "commercial mortgage broker", "commercial mortgage brokers", "commercial mortgage", "Commercial Mortgages", ClassMortgage},
	{"protection-insurance", "protection insurance adviser", "protection insurance advisers", "protection insurance", "Protection Insurance", ClassMortgage},

	{"sales", "estate agent", "estate agents", "estate agent", "Property Sales", ClassEstateAgency},
	{"lettings", "letting agent", "letting agents", "letting agent", "Lettings", ClassEstateAgency},
	{"property-management", "property management company", "property management companies", "property management", "Property Management", ClassEstateAgency},
	{"block-management", "block management company", "block management companies", "block management", "Block Management", ClassEstateAgency},
	{"auctions", "property auctioneer", "property auctioneers", "property auction", "Property Auctions", ClassEstateAgency},
	{"commercial-property", "commercial property agent", "commercial property agents", "commercial property", "Commercial Property", ClassEstateAgency},
	{"inventory", "inventory clerk", "inventory clerks", "inventory", "Inventory Services", ClassEstateAgency},
}

var bySlug = func() map[string]Category {
	m := make(map[string]Category, len(all))
	for _, c := range all {
		m[c.Slug] = c
	}
	return m
}()

// aliases maps normalised vendor service / practice-area names that do not equal a
// slug onto one.
var aliases = map[string]string{
	"photocopiers":          "copiers",
	"photocopier":           "copiers",
	"printers":              "copiers",
	"copiers-and-printers":  "copiers",
	"managed-print":         "copiers",
	"telecom":               "telecoms",
	"telephony":             "telecoms",
	"voip":                  "telecoms",
	"security":              "cctv",
	"cctv-and-security":     "cctv",
	"it-services":           "it",
	"it-support":            "it",
	"managed-it":            "it",
	"family":                "family-law",
	"criminal":              "criminal-law",
	"criminal-defence":      "criminal-law",
	"commercial":            "commercial-law",
	"corporate-law":         "commercial-law",
	"employment":            "employment-law",
	"wills":                 "wills-and-probate",
	"probate":               "wills-and-probate",
	"wills-probate":         "wills-and-probate",
	"tax":                   "tax-advisory",
	"tax-advice":            "tax-advisory",
	"audit":                 "audit-assurance",
	"audit-and-assurance":   "audit-assurance",
	"vat":                   "vat-services",
	"residential":           "residential-mortgages",
	"residential-mortgage":  "residential-mortgages",
	"mortgages":             "residential-mortgages",
	"btl":                   "buy-to-let",
	"remortgages":           "remortgage",
	"first-time-buyers":     "first-time-buyer",
	"commercial-mortgage":   "commercial-mortgages",
	"protection":            "protection-insurance",
	"property-sales":        "sales",
	"residential-sales":     "sales",
	"letting":               "lettings",
	"auction":               "auctions",
	"inventories":           "inventory",
	"inventory-services":    "inventory",
	"commercial-properties": "commercial-property",
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func normalise(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "&", " and ")
	s = nonSlug.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// All returns every category in enumeration order.
func All() []Category {
	out := make([]Category, len(all))
	copy(out, all)
	return out
}

// Get looks up a category by slug.
func Get(slug string) (Category, bool) {
	c, ok := bySlug[slug]
	return c, ok
}

// Valid reports whether slug is in the enumeration.
func Valid(slug string) bool {
	_, ok := bySlug[slug]
	return ok
}

// Label returns the prompt label for slug, falling back to the slug itself.
func Label(slug string) string {
	if c, ok := bySlug[slug]; ok {
		return c.Label
	}
	return strings.ReplaceAll(slug, "-", " ")
}

// FromName maps a vendor service or practice-area name to a category slug.
func FromName(name string) (string, bool) {
	key := normalise(name)
	if key == "" {
		return "", false
	}
	if _, ok := bySlug[key]; ok {
		return key, true
	}
	if slug, ok := aliases[key]; ok {
		return slug, true
	}
	return "", false
}

// ForVendor picks the report category for a vendor: first practice area wins, then
// first service. Only the first entry of each list is considered.
func ForVendor(practiceAreas, services []string) (string, bool) {
	if len(practiceAreas) > 0 {
		if slug, ok := FromName(practiceAreas[0]); ok {
			return slug, true
		}
	}
	if len(services) > 0 {
		if slug, ok := FromName(services[0]); ok {
			return slug, true
		}
	}
	return "", false
}

// TermsFor returns copy terms for slug. Unknown slugs get office-equipment wording.
func TermsFor(slug string) Terms {
	c, ok := bySlug[slug]
	if !ok {
		return Terms{Singular: "supplier", Plural: "suppliers", Professional: "supplier", Customer: "business"}
	}
	t := Terms{Singular: c.Label, Plural: c.Plural}
	switch c.Class {
	case ClassLegal:
		t.Professional, t.Customer = "solicitor", "client"
	case ClassAccounting:
		t.Professional, t.Customer = "accountant", "client"
	case ClassMortgage:
		t.Professional, t.Customer = "adviser", "borrower"
	case ClassEstateAgency:
		t.Professional, t.Customer = "agent", "landlord or seller"
	default:
		t.Professional, t.Customer = "supplier", "business"
	}
	return t
}

// ClassOf returns the class of slug.
func ClassOf(slug string) Class {
	if c, ok := bySlug[slug]; ok {
		return c.Class
	}
	return ClassOfficeEquipment
}
