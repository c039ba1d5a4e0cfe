package categories

// Signal names a boolean field of the researched company profile.
type Signal string

const (
	SignalWebsite          Signal = "website"
	SignalReviews          Signal = "reviews"
	SignalPricing          Signal = "pricing"
	SignalBrands           Signal = "brands"
	SignalStructuredData   Signal = "structuredData"
	SignalDetailedServices Signal = "detailedServices"
	SignalSocialMedia      Signal = "socialMedia"
	SignalGoogleBusiness   Signal = "googleBusiness"
)

// ChecklistItem is one row of the "What AI Knows" checklist.
type ChecklistItem struct {
	Signal Signal
	Label  string
}

var checklists = map[Class][]ChecklistItem{
	ClassOfficeEquipment: {
		{SignalWebsite, "Website found"},
		{SignalReviews, "Customer reviews visible"},
		{SignalPricing, "Pricing or lease costs published"},
		{SignalBrands, "Brands and manufacturers listed"},
		{SignalStructuredData, "Schema.org structured data"},
		{SignalDetailedServices, "Detailed service and product pages"},
		{SignalSocialMedia, "Active social media profiles"},
		{SignalGoogleBusiness, "Google Business Profile"},
	},
	ClassLegal: {
		{SignalWebsite, "Website found"},
		{SignalReviews, "Client reviews visible"},
		{SignalPricing, "Fee transparency (SRA price statements)"},
		{SignalBrands, "Accreditations listed (Lexcel, CQS)"},
		{SignalStructuredData, "LegalService structured data"},
		{SignalDetailedServices, "Practice area pages"},
		{SignalSocialMedia, "Active social media profiles"},
		{SignalGoogleBusiness, "Google Business Profile"},
	},
	ClassAccounting: {
		{SignalWebsite, "Website found"},
		{SignalReviews, "Client reviews visible"},
		{SignalPricing, "Fixed-fee packages published"},
		{SignalBrands, "Professional bodies listed (ICAEW, ACCA)"},
		{SignalStructuredData, "AccountingService structured data"},
		{SignalDetailedServices, "Service pages by client type"},
		{SignalSocialMedia, "Active social media profiles"},
		{SignalGoogleBusiness, "Google Business Profile"},
	},
	ClassMortgage: {
		{SignalWebsite, "Website found"},
		{SignalReviews, "Client reviews visible"},
		{SignalPricing, "Broker fees disclosed"},
		{SignalBrands, "FCA registration and lender panel listed"},
		{SignalStructuredData, "FinancialService structured data"},
		{SignalDetailedServices, "Mortgage type guides"},
		{SignalSocialMedia, "Active social media profiles"},
		{SignalGoogleBusiness, "Google Business Profile"},
	},
	ClassEstateAgency: {
		{SignalWebsite, "Website found"},
		{SignalReviews, "Vendor and landlord reviews visible"},
		{SignalPricing, "Fees published"},
		{SignalBrands, "Memberships listed (Propertymark, TPO)"},
		{SignalStructuredData, "RealEstateAgent structured data"},
		{SignalDetailedServices, "Area and service pages"},
		{SignalSocialMedia, "Active social media profiles"},
		{SignalGoogleBusiness, "Google Business Profile"},
	},
}

// Checklist returns the checklist rows for a category slug.
func Checklist(slug string) []ChecklistItem {
	items := checklists[ClassOf(slug)]
	out := make([]ChecklistItem, len(items))
	copy(out, items)
	return out
}
