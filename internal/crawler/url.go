package crawler

import (
	"net/url"
)

// trackingParams are query parameters stripped from discovered links so the
// frontier does not treat the same page as many URLs.
var trackingParams = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"fbclid":       true,
	"gclid":        true,
}

// CleanURL removes tracking parameters and drops the fragment.
func CleanURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	for param := range trackingParams {
		q.Del(param)
	}
	u.RawQuery = q.Encode()
	u.Fragment = ""
	return u.String()
}

// ToAbsoluteURL resolves a possibly relative href against the page URL.
func ToAbsoluteURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
