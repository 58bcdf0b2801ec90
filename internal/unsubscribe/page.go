package unsubscribe

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// alreadyDoneKeywords marks pages that need no further action: the
// unsubscribe either already happened or completed on the first GET
// (one-click links).
var alreadyDoneKeywords = []string{
	"unsubscribed",
	"removed",
	"no longer receive",
	"success",
}

// formKeywords selects forms worth submitting.
var formKeywords = []string{"unsubscribe", "opt out", "opt-out", "remove"}

// confirmLinkKeywords selects on-page links worth following.
var confirmLinkKeywords = []string{"unsubscribe", "opt out", "remove", "confirm"}

// AlreadyDone reports whether the page text indicates a terminal state:
// the recipient is already (or just became) unsubscribed.
func AlreadyDone(pageText string) bool {
	return containsAny(strings.ToLower(pageText), alreadyDoneKeywords)
}

// FormField is a single named input, in document order.
type FormField struct {
	Name  string
	Value string
}

// Form is a candidate unsubscribe form found on a fetched page.
type Form struct {
	// SubmitURL is absolute, resolved against the page's final
	// (post-redirect) URL.
	SubmitURL string
	Method    string // http.MethodGet or http.MethodPost
	Fields    []FormField
}

// Values returns the fields as url.Values for submission.
func (f Form) Values() url.Values {
	v := url.Values{}
	for _, field := range f.Fields {
		v.Set(field.Name, field.Value)
	}
	return v
}

// Link is a candidate confirmation link found on a fetched page.
type Link struct {
	URL  string // absolute
	Text string
}

// ExtractForms finds every form whose aggregate visible text matches the
// unsubscribe vocabulary and returns it ready to submit: action resolved
// absolute against baseURL (empty action means the page itself), method
// defaulted to GET, named inputs collected in document order. Checkbox and
// radio inputs are included only when the markup marks them checked;
// unnamed inputs are dropped. Malformed HTML yields no forms, not an error.
func ExtractForms(html, baseURL string) []Form {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	var forms []Form
	doc.Find("form").Each(func(_ int, sel *goquery.Selection) {
		if !containsAny(strings.ToLower(sel.Text()), formKeywords) {
			return
		}

		action, _ := sel.Attr("action")
		submitURL := baseURL
		if action != "" {
			if ref, err := url.Parse(action); err == nil {
				submitURL = base.ResolveReference(ref).String()
			}
		}

		method := "GET"
		if m, ok := sel.Attr("method"); ok && strings.EqualFold(m, "post") {
			method = "POST"
		}

		form := Form{SubmitURL: submitURL, Method: method}
		sel.Find("input").Each(func(_ int, input *goquery.Selection) {
			name, ok := input.Attr("name")
			if !ok || name == "" {
				return
			}
			value := input.AttrOr("value", "")
			typ := strings.ToLower(input.AttrOr("type", ""))
			if typ == "checkbox" || typ == "radio" {
				// Presence of the attribute is the boolean, not its value.
				if _, checked := input.Attr("checked"); !checked {
					return
				}
			}
			form.setField(name, value)
		})
		forms = append(forms, form)
	})
	return forms
}

// setField appends a field, overwriting the value of an earlier field with
// the same name so names stay unique while order stays document order.
func (f *Form) setField(name, value string) {
	for i := range f.Fields {
		if f.Fields[i].Name == name {
			f.Fields[i].Value = value
			return
		}
	}
	f.Fields = append(f.Fields, FormField{Name: name, Value: value})
}

// ExtractLinks finds every anchor whose visible text matches the
// confirmation vocabulary, with hrefs resolved absolute against baseURL,
// in document order.
func ExtractLinks(html, baseURL string) []Link {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	var links []Link
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		text := sel.Text()
		if !containsAny(strings.ToLower(text), confirmLinkKeywords) {
			return
		}
		href, _ := sel.Attr("href")
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		links = append(links, Link{
			URL:  base.ResolveReference(ref).String(),
			Text: strings.TrimSpace(text),
		})
	})
	return links
}
