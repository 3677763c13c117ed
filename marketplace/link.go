// Package marketplace recognises product links pasted from third-party
// marketplaces. It only inspects the URL; it never fetches it.
package marketplace

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

const maxLinkLength = 2048

var (
	ErrInvalidLink     = errors.New("marketplace: not a valid http(s) link")
	ErrUnsupportedLink = errors.New("marketplace: link is not from a supported marketplace")
)

// Link is a parsed product link.
type Link struct {
	URL         string `json:"url"`
	Marketplace string `json:"marketplace"`
	ProductRef  string `json:"product_ref,omitempty"`
}

type rule struct {
	name    string
	domains []string
	// name label under any ICANN suffix, e.g. amazon.co.uk
	anyTLD bool
	ref    *regexp.Regexp
}

var rules = []rule{
	{name: "amazon", domains: []string{"amazon", "amzn.to", "a.co"}, anyTLD: true,
		ref: regexp.MustCompile(`/(?:dp|gp/product|gp/aw/d)/([A-Z0-9]{10})(?:[/?]|$)`)},
	{name: "ebay", domains: []string{"ebay", "ebay.us"}, anyTLD: true,
		ref: regexp.MustCompile(`/itm/(?:[^/]+/)?(\d+)`)},
	{name: "aliexpress", domains: []string{"aliexpress"}, anyTLD: true,
		ref: regexp.MustCompile(`/item/(\d+)\.html`)},
	{name: "shein", domains: []string{"shein"}, anyTLD: true,
		ref: regexp.MustCompile(`-p-(\d+)(?:-cat-\d+)?\.html`)},
	{name: "temu", domains: []string{"temu.com"},
		ref: regexp.MustCompile(`-g-(\d+)\.html`)},
	{name: "walmart", domains: []string{"walmart.com"},
		ref: regexp.MustCompile(`/ip/(?:[^/]+/)?(\d+)`)},
	{name: "etsy", domains: []string{"etsy.com"},
		ref: regexp.MustCompile(`/listing/(\d+)`)},
}

// Supported returns the names of the recognised marketplaces.
func Supported() []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.name)
	}
	return out
}

// ParseLink validates raw and identifies its marketplace. Query strings and
// fragments are dropped from the returned URL since they mostly carry
// tracking parameters.
func ParseLink(raw string) (Link, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxLinkLength {
		return Link{}, ErrInvalidLink
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return Link{}, ErrInvalidLink
	}

	host := strings.ToLower(u.Hostname())
	for _, r := range rules {
		if !r.matches(host) {
			continue
		}
		link := Link{
			URL:         "https://" + host + u.EscapedPath(),
			Marketplace: r.name,
		}
		if m := r.ref.FindStringSubmatch(u.Path); m != nil {
			link.ProductRef = m[1]
		}
		return link, nil
	}

	return Link{}, fmt.Errorf("%w: %s", ErrUnsupportedLink, host)
}

func (r rule) matches(host string) bool {
	for _, d := range r.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
		if r.anyTLD && !strings.Contains(d, ".") && registeredName(host) == d {
			return true
		}
	}
	return false
}

// registeredName returns the label directly left of host's ICANN public
// suffix: "amazon" for www.amazon.co.uk, "evil" for amazon.evil.com.
func registeredName(host string) string {
	suffix, icann := publicsuffix.PublicSuffix(host)
	if !icann || suffix == host {
		return ""
	}
	site, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(site, "."+suffix)
}
