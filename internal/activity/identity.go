package activity

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// UnknownIdentity is attributed to browser records whose URL is missing or
// cannot be parsed.
const UnknownIdentity = "Unknown"

// DefaultBrowsers lists the applications whose activity is identified by the
// domain of the open tab rather than by the application name.
var DefaultBrowsers = []string{"Safari", "Google Chrome", "Firefox", "Brave Browser"}

// Classifier maps records to activity identities.
type Classifier struct {
	browsers map[string]struct{}
}

// NewClassifier returns a Classifier that recognises DefaultBrowsers plus extra.
func NewClassifier(extra ...string) *Classifier {
	c := &Classifier{browsers: make(map[string]struct{}, len(DefaultBrowsers)+len(extra))}
	for _, name := range DefaultBrowsers {
		c.browsers[name] = struct{}{}
	}
	for _, name := range extra {
		if name = strings.TrimSpace(name); name != "" {
			c.browsers[name] = struct{}{}
		}
	}
	return c
}

var defaultClassifier = NewClassifier()

// IsBrowser reports whether appName is a recognised browser.
func (c *Classifier) IsBrowser(appName string) bool {
	_, ok := c.browsers[appName]
	return ok
}

// Identity returns the activity identity of f: the registered domain of the
// URL for browsers, the application name otherwise.
func (c *Classifier) Identity(f Focus) string {
	if !c.IsBrowser(f.AppName) {
		return f.AppName
	}
	if f.URL == nil {
		return UnknownIdentity
	}
	domain, ok := RegisteredDomain(*f.URL)
	if !ok {
		return UnknownIdentity
	}
	return domain
}

// IsBrowser reports whether appName is one of DefaultBrowsers.
func IsBrowser(appName string) bool { return defaultClassifier.IsBrowser(appName) }

// Identity classifies f using DefaultBrowsers.
func Identity(f Focus) string { return defaultClassifier.Identity(f) }

// RegisteredDomain extracts the registrable domain (eTLD+1) from rawURL.
// Hosts without a public suffix, such as IP addresses or localhost, are
// returned as-is. ok is false when rawURL has no host.
func RegisteredDomain(rawURL string) (domain string, ok bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}
	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	if host == "" {
		return "", false
	}
	if net.ParseIP(host) != nil {
		return host, true
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return strings.TrimPrefix(host, "www."), true
	}
	return etld1, true
}
