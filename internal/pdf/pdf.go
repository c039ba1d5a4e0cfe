// Package pdf renders visibility reports as six-page A4 documents.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/tendorai/avp/internal/categories"
	"github.com/tendorai/avp/internal/models"
	"github.com/tendorai/avp/internal/siteprobe"
)

const (
	pageW    = 595.28
	pageH    = 841.89
	margin   = 40.0
	contentW = pageW - 2*margin
	pages    = 6
)

// epoch is written as the document's creation and modification date so equal
// reports produce equal bytes.
var epoch = time.Unix(0, 0).UTC()

type rgb struct{ r, g, b int }

var (
	navy      = rgb{15, 23, 42}
	blue      = rgb{37, 99, 235}
	slate     = rgb{71, 85, 105}
	light     = rgb{241, 245, 249}
	border    = rgb{203, 213, 225}
	white     = rgb{255, 255, 255}
	green     = rgb{22, 163, 74}
	red       = rgb{220, 38, 38}
	amber     = rgb{217, 119, 6}
	lightBlue = rgb{219, 234, 254}
)

// Renderer produces report PDFs. FrontendURL roots the plan and sign-up links.
type Renderer struct {
	FrontendURL string
}

// NewRenderer creates a renderer linking to frontendURL.
func NewRenderer(frontendURL string) *Renderer {
	return &Renderer{FrontendURL: strings.TrimRight(frontendURL, "/")}
}

// Render lays out report. Equal input yields byte-identical output.
func (rn *Renderer) Render(report *models.ReportData) (out []byte, err error) {
	if report == nil {
		return nil, &models.RenderError{Err: errors.New("nil report")}
	}
	defer func() {
		if p := recover(); p != nil {
			out = nil
			err = &models.RenderError{Err: fmt.Errorf("panic during layout: %v", p)}
		}
	}()

	d := newDoc(report, strings.TrimRight(rn.FrontendURL, "/"))
	d.cover()
	d.knowledge()
	d.competitors()
	d.gaps()
	d.roadmap()
	d.callToAction()

	if d.pdf.Err() {
		return nil, &models.RenderError{Err: d.pdf.Error()}
	}
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, &models.RenderError{Err: err}
	}
	return buf.Bytes(), nil
}

// doc is one document in progress.
type doc struct {
	pdf      *fpdf.Fpdf
	tr       func(string) string
	r        *models.ReportData
	terms    categories.Terms
	display  string
	frontend string
}

func newDoc(r *models.ReportData, frontend string) *doc {
	p := fpdf.New("P", "pt", "A4", "")
	p.SetCreationDate(epoch)
	p.SetModificationDate(epoch)
	p.SetCatalogSort(true)
	p.SetAutoPageBreak(false, 0)
	p.SetMargins(margin, margin, margin)
	p.SetCellMargin(0)
	p.SetTitle(Sanitize("AI Visibility Report - "+r.CompanyName), true)
	p.SetAuthor("TendorAI", false)
	p.SetCreator("TendorAI", false)

	display := categories.Label(r.Category)
	if c, ok := categories.Get(r.Category); ok {
		display = c.Display
	}

	return &doc{
		pdf:      p,
		tr:       p.UnicodeTranslatorFromDescriptor(""),
		r:        r,
		terms:    categories.TermsFor(r.Category),
		display:  display,
		frontend: frontend,
	}
}

// enc prepares arbitrary text for a core font.
func (d *doc) enc(s string) string {
	return d.tr(Sanitize(s))
}

func (d *doc) fill(c rgb) { d.pdf.SetFillColor(c.r, c.g, c.b) }
func (d *doc) ink(c rgb)  { d.pdf.SetTextColor(c.r, c.g, c.b) }
func (d *doc) draw(c rgb) { d.pdf.SetDrawColor(c.r, c.g, c.b) }

func (d *doc) bold(size float64)    { d.pdf.SetFont("Helvetica", "B", size) }
func (d *doc) regular(size float64) { d.pdf.SetFont("Helvetica", "", size) }

// line writes a single line of text, shortened with "..." to fit w.
func (d *doc) line(x, y, w, h float64, s, align string) {
	txt := d.fit(d.enc(s), w)
	d.pdf.SetXY(x, y)
	d.pdf.CellFormat(w, h, txt, "", 0, align, false, 0, "")
}

func (d *doc) fit(txt string, w float64) string {
	if d.pdf.GetStringWidth(txt) <= w {
		return txt
	}
	for len(txt) > 0 && d.pdf.GetStringWidth(txt+"...") > w {
		txt = txt[:len(txt)-1]
	}
	return strings.TrimRight(txt, " ") + "..."
}

// para wraps s into at most maxLines lines of height h and returns the y below it.
func (d *doc) para(x, y, w, h float64, s string, maxLines int) float64 {
	lines := d.pdf.SplitLines([]byte(d.enc(s)), w)
	if len(lines) > maxLines {
		last := d.fit(string(lines[maxLines-1])+" "+string(lines[maxLines]), w)
		lines = append(lines[:maxLines-1], []byte(last))
	}
	for _, l := range lines {
		d.pdf.SetXY(x, y)
		d.pdf.CellFormat(w, h, string(l), "", 0, "L", false, 0, "")
		y += h
	}
	return y
}

func (d *doc) link(x, y, w, h float64, url string) {
	if url == "" {
		return
	}
	d.pdf.LinkString(x, y, w, h, url)
}

// page starts a content page with a title band and footer.
func (d *doc) page(title, subtitle string) float64 {
	d.pdf.AddPage()
	d.fill(navy)
	d.pdf.Rect(0, 0, pageW, 90, "F")
	d.ink(white)
	d.bold(20)
	d.line(margin, 28, contentW, 24, title, "L")
	d.regular(11)
	d.ink(lightBlue)
	d.line(margin, 56, contentW, 16, subtitle, "L")
	d.footer()
	return 115
}

func (d *doc) footer() {
	d.draw(border)
	d.pdf.SetLineWidth(0.5)
	d.pdf.Line(margin, pageH-45, pageW-margin, pageH-45)
	d.regular(8)
	d.ink(slate)
	d.line(margin, pageH-38, contentW/2, 12, "TendorAI AI Visibility Report | "+d.r.CompanyName, "L")
	d.line(margin+contentW/2, pageH-38, contentW/2, 12, fmt.Sprintf("Page %d of %d", d.pdf.PageNo(), pages), "R")
}

func (d *doc) planURL(plan string) string {
	return d.frontend + "/pricing?plan=" + plan
}

func (d *doc) signupURL() string {
	return d.frontend + "/vendor-signup"
}

// websiteURL returns a clickable form of a competitor website, or "".
func websiteURL(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	u, err := siteprobe.Normalize(raw)
	if err != nil {
		return ""
	}
	return u
}

func scoreColor(score int) rgb {
	switch {
	case score <= 35:
		return red
	case score <= 65:
		return amber
	default:
		return green
	}
}
