// Package unsubscribe implements a best-effort unsubscribe engine for bulk
// mail: it locates an unsubscribe mechanism in a message's headers or HTML
// body, walks the resulting page without a browser, and reports a tri-state
// outcome per message.
package unsubscribe

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Source identifies which extraction strategy produced a target.
type Source int

const (
	SourceHeaderListUnsubscribe Source = iota
	SourceBodyLinkText
	SourceBodyLinkHref
	SourceBodyParentElement
	SourceBodyFallbackLastLink
)

func (s Source) String() string {
	switch s {
	case SourceHeaderListUnsubscribe:
		return "header"
	case SourceBodyLinkText:
		return "link-text"
	case SourceBodyLinkHref:
		return "link-href"
	case SourceBodyParentElement:
		return "parent-element"
	case SourceBodyFallbackLastLink:
		return "fallback-last-link"
	default:
		return "unknown"
	}
}

// Header is a single mail header as exposed by the mailbox collaborator.
type Header struct {
	Name  string
	Value string
}

// Target is a candidate unsubscribe mechanism for one message.
// A mailto target is never fetched; it blocks the attempt immediately.
type Target struct {
	URL      string
	Source   Source
	IsMailto bool
}

// linkKeywords is the vocabulary for "is this element unsubscribe-related".
// Matching is case-insensitive substring; order is irrelevant.
var linkKeywords = []string{
	"unsubscribe",
	"opt-out",
	"opt out",
	"optout",
	"remove",
	"stop receiving",
	"stop emails",
	"cancel subscription",
	"email preferences",
	"manage preferences",
	"update preferences",
	"do not send",
	"leave this list",
	"update subscription",
	"email settings",
}

// socialHosts disqualifies footer links from the positional fallback:
// marketing footers put social icons next to the unsubscribe link.
var socialHosts = []string{
	"facebook.com",
	"twitter.com",
	"linkedin.com",
	"instagram.com",
	"youtube.com",
	"pinterest.com",
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func isHTTPLink(href string) bool {
	lower := strings.ToLower(href)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func isMailtoLink(href string) bool {
	return strings.HasPrefix(strings.ToLower(href), "mailto:")
}

// FindTarget locates the best candidate unsubscribe URL for a message.
// Strategies are tried in strict priority order; the first hit wins:
//
//  1. List-Unsubscribe header (a mailto-only header short-circuits the
//     body search entirely)
//  2. anchor visible-text keyword match
//  3. anchor href keyword match
//  4. parent-element (td/div/p/span) keyword match
//  5. last non-social link, only when "unsubscribe" appears in the raw body
//
// Tracking redirects routinely hide "unsubscribe" from the URL itself, so
// text matching must run before href matching, and both before the
// positional fallback. Returns nil when no strategy matches.
func FindTarget(headers []Header, htmlBody string) *Target {
	if t := targetFromHeader(headers); t != nil {
		return t
	}
	return targetFromBody(htmlBody)
}

// targetFromHeader parses the List-Unsubscribe header (RFC 2369/8058):
// one or more angle-bracket URIs separated by commas. The first http(s)
// URI wins; a header carrying only mailto URIs yields a mailto target so
// the caller can fail fast instead of scraping the body.
func targetFromHeader(headers []Header) *Target {
	for _, h := range headers {
		if !strings.EqualFold(h.Name, "List-Unsubscribe") {
			continue
		}
		var mailto string
		for _, part := range strings.Split(h.Value, ",") {
			part = strings.TrimSpace(part)
			// Only angle-bracket-delimited URIs count (RFC 2369 syntax);
			// a bare URL is an unparsable header and falls through.
			if !strings.HasPrefix(part, "<") || !strings.HasSuffix(part, ">") {
				continue
			}
			uri := strings.TrimSpace(strings.Trim(part, "<>"))
			if uri == "" {
				continue
			}
			if isHTTPLink(uri) {
				return &Target{URL: uri, Source: SourceHeaderListUnsubscribe}
			}
			if isMailtoLink(uri) && mailto == "" {
				mailto = uri
			}
		}
		if mailto != "" {
			return &Target{URL: mailto, Source: SourceHeaderListUnsubscribe, IsMailto: true}
		}
	}
	return nil
}

func targetFromBody(htmlBody string) *Target {
	if htmlBody == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		// Malformed markup degrades to "no candidates", never an error.
		return nil
	}

	// Strategy 2: anchor visible text (including nested element text).
	var found *Target
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if !isHTTPLink(href) || isMailtoLink(href) {
			return true
		}
		if containsAny(strings.ToLower(s.Text()), linkKeywords) {
			if decoded, err := url.QueryUnescape(href); err == nil {
				href = decoded
			}
			found = &Target{URL: href, Source: SourceBodyLinkText}
			return false
		}
		return true
	})
	if found != nil {
		return found
	}

	// Strategy 3: the href itself.
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if !isHTTPLink(href) || isMailtoLink(href) {
			return true
		}
		if containsAny(strings.ToLower(href), linkKeywords) {
			found = &Target{URL: href, Source: SourceBodyLinkHref}
			return false
		}
		return true
	})
	if found != nil {
		return found
	}

	// Strategy 4: container elements whose text mentions unsubscribing.
	doc.Find("td, div, p, span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !containsAny(strings.ToLower(s.Text()), linkKeywords) {
			return true
		}
		s.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			if isHTTPLink(href) && !isMailtoLink(href) {
				found = &Target{URL: href, Source: SourceBodyParentElement}
				return false
			}
			return true
		})
		return found == nil
	})
	if found != nil {
		return found
	}

	// Strategy 5: the conventional footer position, last non-social link.
	// Only worth trying when the body mentions unsubscribing at all.
	if !strings.Contains(strings.ToLower(htmlBody), "unsubscribe") {
		return nil
	}
	var last string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !isHTTPLink(href) || isMailtoLink(href) {
			return
		}
		if u, err := url.Parse(href); err == nil {
			host := strings.ToLower(u.Hostname())
			for _, social := range socialHosts {
				if strings.Contains(host, social) {
					return
				}
			}
		}
		last = href
	})
	if last != "" {
		return &Target{URL: last, Source: SourceBodyFallbackLastLink}
	}
	return nil
}
