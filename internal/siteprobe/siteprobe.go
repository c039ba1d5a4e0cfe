// Package siteprobe fetches a company homepage and reports on-page signals that
// assistants rely on: structured data, social profiles and published pricing.
package siteprobe

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"
)

const maxBody = 512 * 1024

// Findings are the signals detected on one page.
type Findings struct {
	URL            string
	StructuredData bool
	SchemaTypes    []string
	SocialMedia    bool
	SocialLinks    []string
	Pricing        bool
}

// Prober fetches and inspects pages.
type Prober struct {
	client *resty.Client
}

// NewProber creates a prober with a 10 second timeout.
func NewProber() *Prober {
	return &Prober{
		client: resty.New().
			SetTimeout(10 * time.Second).
			SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)).
			SetHeader("User-Agent", "Mozilla/5.0 (compatible; TendorAI-VisibilityBot/1.0)").
			SetHeader("Accept", "text/html,application/xhtml+xml"),
	}
}

var socialHosts = []string{
	"facebook.com", "instagram.com", "linkedin.com", "twitter.com", "x.com", "youtube.com", "tiktok.com",
}

var (
	pricePattern = regexp.MustCompile(`£\s?\d`)
	priceWords   = regexp.MustCompile(`(?i)\b(pricing|prices|our fees|fixed fee|per month|from £)\b`)
	schemaType   = regexp.MustCompile(`"@type"\s*:\s*"([A-Za-z]+)"`)
)

// Probe fetches pageURL and inspects it.
func (p *Prober) Probe(ctx context.Context, pageURL string) (*Findings, error) {
	target, err := Normalize(pageURL)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(target)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("fetch %s: status %d", target, resp.StatusCode())
	}

	doc, err := html.Parse(io.LimitReader(body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", target, err)
	}

	f := Inspect(doc)
	f.URL = target
	return f, nil
}

// Inspect walks a parsed document.
func Inspect(doc *html.Node) *Findings {
	f := &Findings{}
	types := map[string]bool{}
	social := map[string]bool{}
	var text strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script":
				if strings.EqualFold(attr(n, "type"), "application/ld+json") {
					f.StructuredData = true
					if n.FirstChild != nil {
						for _, m := range schemaType.FindAllStringSubmatch(n.FirstChild.Data, -1) {
							types[m[1]] = true
						}
					}
				}
				return
			case "style", "noscript":
				return
			case "a":
				if host := socialHost(attr(n, "href")); host != "" {
					f.SocialMedia = true
					social[host] = true
				}
			}
			if _, ok := attrOK(n, "itemscope"); ok {
				f.StructuredData = true
			}
			if it := attr(n, "itemtype"); it != "" {
				f.StructuredData = true
				if i := strings.LastIndex(it, "/"); i >= 0 && i < len(it)-1 {
					types[it[i+1:]] = true
				}
			}
		}
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
			text.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	plain := text.String()
	f.Pricing = pricePattern.MatchString(plain) || priceWords.MatchString(plain)
	f.SchemaTypes = sortedKeys(types)
	f.SocialLinks = sortedKeys(social)
	return f
}

// Normalize adds an https scheme when missing and rejects non-http URLs.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid url %q: no host", raw)
	}
	return u.String(), nil
}

func socialHost(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for _, s := range socialHosts {
		if host == s || strings.HasSuffix(host, "."+s) {
			return s
		}
	}
	return ""
}

func attr(n *html.Node, key string) string {
	v, _ := attrOK(n, key)
	return v
}

func attrOK(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
