package pdf

import (
	"fmt"
	"strings"

	"github.com/tendorai/avp/internal/categories"
	"github.com/tendorai/avp/internal/models"
	"github.com/tendorai/avp/internal/scoring"
)

func (d *doc) cover() {
	r := d.r
	d.pdf.AddPage()

	d.fill(navy)
	d.pdf.Rect(0, 0, pageW, 300, "F")
	d.ink(lightBlue)
	d.bold(11)
	d.line(margin, 60, contentW, 14, "AI VISIBILITY REPORT", "L")
	d.ink(white)
	d.bold(30)
	d.line(margin, 90, contentW, 36, r.CompanyName, "L")
	d.regular(15)
	d.line(margin, 135, contentW, 20, d.display+" in "+r.City, "L")
	d.ink(lightBlue)
	d.regular(10)
	d.line(margin, 165, contentW, 14, "Generated "+r.CreatedAt.UTC().Format("2 January 2006"), "L")
	d.line(margin, 182, contentW, 14, "How AI assistants answer when "+d.terms.Customer+"s ask for a "+d.terms.Singular+".", "L")

	// Score disc.
	cx, cy := pageW/2, 395.0
	d.fill(white)
	d.pdf.Circle(cx, cy, 84, "F")
	d.fill(scoreColor(r.Score))
	d.pdf.Circle(cx, cy, 76, "F")
	d.ink(white)
	d.bold(48)
	d.line(cx-70, cy-30, 140, 48, fmt.Sprintf("%d", r.Score), "C")
	d.regular(12)
	d.line(cx-70, cy+20, 140, 14, "out of 100", "C")
	d.ink(navy)
	d.bold(16)
	d.line(margin, cy+95, contentW, 20, scoring.Label(r.Score), "C")

	// Key stats bar.
	y := 540.0
	d.fill(light)
	d.pdf.Rect(margin, y, contentW, 70, "F")
	mentioned := "No"
	if r.AIMentioned {
		mentioned = "Yes"
		if r.AIPosition != nil {
			mentioned = fmt.Sprintf("Yes (#%d)", *r.AIPosition)
		}
	}
	stats := []struct{ value, label string }{
		{fmt.Sprintf("%d/100", r.Score), "Visibility score"},
		{mentioned, "Recommended by AI"},
		{fmt.Sprintf("%d", len(r.Competitors)), "Competitors found"},
		{fmt.Sprintf("%d", len(r.Gaps)), "Gaps identified"},
	}
	cellW := contentW / float64(len(stats))
	for i, s := range stats {
		x := margin + float64(i)*cellW
		d.ink(navy)
		d.bold(18)
		d.line(x, y+14, cellW, 22, s.value, "C")
		d.ink(slate)
		d.regular(9)
		d.line(x, y+42, cellW, 12, s.label, "C")
	}

	y += 90
	if len(r.PlatformResults) > 0 {
		hits := 0
		for _, pr := range r.PlatformResults {
			if pr.Mentioned {
				hits++
			}
		}
		d.ink(navy)
		d.bold(11)
		d.line(margin, y, contentW, 14, fmt.Sprintf("Named by %d of %d AI assistants checked", hits, len(r.PlatformResults)), "L")
		y += 20
	}

	d.ink(navy)
	d.bold(12)
	d.line(margin, y, contentW, 16, "Summary", "L")
	d.ink(slate)
	d.regular(10)
	d.para(margin, y+20, contentW, 14, r.SearchedCompany.Summary, 6)
	d.footer()
}

func (d *doc) knowledge() {
	r := d.r
	y := d.page("What AI Knows About "+r.CompanyName, "The signals AI assistants look for before recommending a "+d.terms.Singular)

	flags := map[categories.Signal]bool{
		categories.SignalWebsite:          r.SearchedCompany.Website != "",
		categories.SignalReviews:          models.Truthy(r.SearchedCompany.HasReviews),
		categories.SignalPricing:          models.Truthy(r.SearchedCompany.HasPricing),
		categories.SignalBrands:           models.Truthy(r.SearchedCompany.HasBrands),
		categories.SignalStructuredData:   models.Truthy(r.SearchedCompany.HasStructuredData),
		categories.SignalDetailedServices: models.Truthy(r.SearchedCompany.HasDetailedServices),
		categories.SignalSocialMedia:      models.Truthy(r.SearchedCompany.HasSocialMedia),
		categories.SignalGoogleBusiness:   models.Truthy(r.SearchedCompany.HasGoogleBusiness),
	}
	for _, item := range categories.Checklist(r.Category) {
		found := flags[item.Signal]
		status, c := "Missing", red
		if found {
			status, c = "Found", green
		}
		d.fill(c)
		d.pdf.Rect(margin, y+3, 10, 10, "F")
		d.ink(navy)
		d.regular(11)
		d.line(margin+20, y, contentW-100, 16, item.Label, "L")
		d.ink(c)
		d.bold(10)
		d.line(pageW-margin-80, y, 80, 16, status, "R")
		y += 22
	}

	// SEO vs AEO explainer.
	y += 12
	d.fill(lightBlue)
	d.pdf.Rect(margin, y, contentW, 110, "F")
	d.ink(navy)
	d.bold(12)
	d.line(margin+14, y+12, contentW-28, 16, "SEO gets you ranked. AEO gets you recommended.", "L")
	d.ink(slate)
	d.regular(10)
	d.para(margin+14, y+34, contentW-28, 14,
		"Search engines show a list of links. AI assistants give one answer and name a handful of "+
			d.terms.Plural+". They choose "+d.terms.Professional+"s whose websites state clearly what they do, "+
			"where they work and what they charge, and whose reputation is visible in reviews and directories. "+
			"AI Engine Optimisation (AEO) makes those facts easy for assistants to find and trust.", 5)

	// Score breakdown bars.
	y += 135
	d.ink(navy)
	d.bold(13)
	d.line(margin, y, contentW, 16, "Score breakdown", "L")
	y += 26
	b := r.ScoreBreakdown
	rows := []struct {
		label string
		value int
	}{
		{"Website optimisation", b.WebsiteOptimisation},
		{"Content authority", b.ContentAuthority},
		{"Directory presence", b.DirectoryPresence},
		{"Review signals", b.ReviewSignals},
		{"Structured data", b.StructuredData},
		{"Competitive position", b.CompetitivePosition},
	}
	barX, barW := margin+150, contentW-200
	for _, row := range rows {
		d.ink(navy)
		d.regular(10)
		d.line(margin, y, 145, 14, row.label, "L")
		d.fill(light)
		d.pdf.Rect(barX, y+2, barW, 10, "F")
		v := row.value
		if v < 0 {
			v = 0
		}
		if v > scoring.MaxDimension {
			v = scoring.MaxDimension
		}
		if v > 0 {
			d.fill(blue)
			d.pdf.Rect(barX, y+2, barW*float64(v)/float64(scoring.MaxDimension), 10, "F")
		}
		d.bold(10)
		d.line(barX+barW+8, y, 42, 14, fmt.Sprintf("%d/%d", row.value, scoring.MaxDimension), "R")
		y += 24
	}
}

func (d *doc) competitors() {
	r := d.r
	y := d.page("Who AI Recommends Instead",
		fmt.Sprintf("%s AI assistants name in %s", strings.ToUpper(d.terms.Plural[:1])+d.terms.Plural[1:], r.City))

	if len(r.Competitors) == 0 {
		d.ink(slate)
		d.regular(11)
		d.para(margin, y, contentW, 16, "No competing "+d.terms.Plural+" were identified for this search.", 2)
		return
	}

	cardH := 124.0
	for i, c := range r.Competitors {
		if i >= 5 {
			break
		}
		d.fill(light)
		d.pdf.Rect(margin, y, contentW, cardH-10, "F")
		d.fill(blue)
		d.pdf.Rect(margin, y, 4, cardH-10, "F")

		x, w := margin+16, contentW-32
		d.ink(navy)
		d.bold(13)
		d.line(x, y+10, w, 16, fmt.Sprintf("%d. %s", i+1, c.Name), "L")

		if url := websiteURL(c.Website); url != "" {
			d.ink(blue)
			d.regular(9)
			label := d.fit(d.enc(c.Website), w)
			d.pdf.SetXY(x, y+28)
			d.pdf.CellFormat(w, 12, label, "", 0, "L", false, 0, "")
			d.link(x, y+28, d.pdf.GetStringWidth(label), 12, url)
		}

		d.ink(slate)
		d.regular(9)
		ny := d.para(x, y+44, w, 12, c.Description, 2)
		d.ink(navy)
		d.bold(9)
		d.line(x, ny+2, w, 12, "Why AI recommends them", "L")
		d.ink(slate)
		d.regular(9)
		ny = d.para(x, ny+15, w, 12, c.Reason, 2)
		if len(c.Strengths) > 0 {
			d.ink(green)
			d.line(x, ny+1, w, 12, "Strengths: "+strings.Join(c.Strengths, " | "), "L")
		}
		y += cardH
	}
}

func (d *doc) gaps() {
	r := d.r
	y := d.page("Why You're Not Being Recommended", "What AI assistants could not find about "+r.CompanyName)

	if len(r.Gaps) == 0 {
		d.ink(slate)
		d.regular(11)
		d.para(margin, y, contentW, 16, "No visibility gaps were identified.", 2)
		return
	}

	for i, g := range r.Gaps {
		if i >= 6 {
			break
		}
		d.fill(amber)
		d.pdf.Circle(margin+12, y+12, 12, "F")
		d.ink(white)
		d.bold(12)
		d.line(margin, y+5, 24, 14, fmt.Sprintf("%d", i+1), "C")

		x, w := margin+36, contentW-36
		d.ink(navy)
		d.bold(12)
		d.line(x, y+4, w, 16, g.Title, "L")
		d.ink(slate)
		d.regular(10)
		d.para(x, y+24, w, 13, g.Explanation, 5)
		y += 108
	}
}

func (d *doc) roadmap() {
	y := d.page("From SEO to AEO", "How recommendation engines differ from search engines")

	rows := [][3]string{
		{"", "Traditional SEO", "AI Engine Optimisation"},
		{"Goal", "Rank on page one", "Be named in the answer"},
		{"Result", "A list of ten links", "Three to five recommendations"},
		{"Signals", "Keywords and backlinks", "Structured data, reviews and citations"},
		{"Content", "Long-form blog posts", "Clear service, pricing and location facts"},
		{"Listings", "Optional", "Directories AI assistants trust"},
		{"Measured by", "Search position", "Mention rate across AI assistants"},
	}
	colW := []float64{105, (contentW - 105) / 2, (contentW - 105) / 2}
	for i, row := range rows {
		x := margin
		if i == 0 {
			d.fill(navy)
			d.ink(white)
			d.bold(10)
		} else {
			if i%2 == 1 {
				d.fill(light)
			} else {
				d.fill(white)
			}
			d.ink(navy)
			d.regular(10)
		}
		d.pdf.Rect(margin, y, contentW, 26, "F")
		for j, cell := range row {
			if i > 0 && j == 0 {
				d.bold(10)
			} else if i > 0 {
				d.regular(10)
			}
			d.line(x+8, y+6, colW[j]-16, 14, cell, "L")
			x += colW[j]
		}
		y += 26
	}

	y += 30
	d.ink(navy)
	d.bold(14)
	d.line(margin, y, contentW, 18, "Your 90-day plan", "L")
	y += 30

	steps := []struct{ when, what string }{
		{"Weeks 1-2", "Fix the foundations: add structured data, claim and complete your Google Business Profile, and publish clear pricing."},
		{"Month 1", "Build authority: collect reviews from recent " + d.terms.Customer + "s, list on trusted directories and write a page for every service."},
		{"Months 2-3", "Track progress: monitor weekly AI mentions and compare against the " + d.terms.Plural + " named in this report."},
	}
	d.draw(blue)
	d.pdf.SetLineWidth(2)
	d.pdf.Line(margin+8, y+6, margin+8, y+6+float64(len(steps)-1)*80)
	for _, s := range steps {
		d.fill(blue)
		d.pdf.Circle(margin+8, y+6, 6, "F")
		d.ink(navy)
		d.bold(11)
		d.line(margin+28, y, contentW-28, 14, s.when, "L")
		d.ink(slate)
		d.regular(10)
		d.para(margin+28, y+18, contentW-28, 13, s.what, 4)
		y += 80
	}
}

func (d *doc) callToAction() {
	y := d.page("Get Recommended by AI", "List "+d.r.CompanyName+" where AI assistants look")

	d.ink(slate)
	d.regular(11)
	y = d.para(margin, y, contentW, 15,
		"TendorAI publishes verified, structured profiles of "+d.terms.Plural+" that AI assistants can read and cite. "+
			"Choose a plan to fix the gaps in this report and track your AI visibility every week.", 4)

	plans := []struct {
		name, slug, price string
		features          []string
	}{
		{"Starter", "starter", "£149/month", []string{
			"Verified TendorAI profile",
			"Structured data for AI assistants",
			"Monthly AI visibility report",
			"Weekly AI mention tracking",
		}},
		{"Pro", "pro", "£299/month", []string{
			"Everything in Starter",
			"Weekly AI visibility report",
			"Competitor tracking",
			"Priority placement in your area",
		}},
	}

	y += 20
	cardW := (contentW - 20) / 2
	cardH := 250.0
	for i, p := range plans {
		x := margin + float64(i)*(cardW+20)
		d.fill(light)
		d.draw(border)
		d.pdf.SetLineWidth(1)
		d.pdf.Rect(x, y, cardW, cardH, "FD")
		d.fill(blue)
		d.pdf.Rect(x, y, cardW, 44, "F")
		d.ink(white)
		d.bold(16)
		d.line(x, y+14, cardW, 18, p.name, "C")
		d.ink(navy)
		d.bold(22)
		d.line(x, y+62, cardW, 26, p.price, "C")
		d.regular(10)
		fy := y + 104
		for _, f := range p.features {
			d.line(x+18, fy, cardW-36, 14, "+ "+f, "L")
			fy += 20
		}
		d.fill(navy)
		d.pdf.Rect(x+18, y+cardH-46, cardW-36, 30, "F")
		d.ink(white)
		d.bold(11)
		d.line(x+18, y+cardH-38, cardW-36, 14, "Choose "+p.name, "C")
		d.link(x, y, cardW, cardH, d.planURL(p.slug))
	}

	y += cardH + 30
	d.fill(navy)
	d.pdf.Rect(margin, y, contentW, 80, "F")
	d.ink(white)
	d.bold(16)
	d.line(margin, y+18, contentW, 20, "Claim your free TendorAI listing today", "C")
	d.ink(lightBlue)
	d.regular(10)
	d.line(margin, y+46, contentW, 14, strings.TrimPrefix(strings.TrimPrefix(d.signupURL(), "https://"), "http://"), "C")
	d.link(margin, y, contentW, 80, d.signupURL())
}
