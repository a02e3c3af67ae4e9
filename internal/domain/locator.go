package domain

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// MaxTitleLength caps stored tab titles.
const MaxTitleLength = 100

// categoryDomains maps registrable domains to their category.
// Lookups match the hostname itself or any subdomain of it.
var categoryDomains = map[string]Category{
	// work
	"github.com":            CategoryWork,
	"gitlab.com":            CategoryWork,
	"bitbucket.org":         CategoryWork,
	"atlassian.net":         CategoryWork,
	"notion.so":             CategoryWork,
	"slack.com":             CategoryWork,
	"docs.google.com":       CategoryWork,
	"drive.google.com":      CategoryWork,
	"mail.google.com":       CategoryWork,
	"calendar.google.com":   CategoryWork,
	"stackoverflow.com":     CategoryWork,
	"linear.app":            CategoryWork,
	"figma.com":             CategoryWork,
	"office.com":            CategoryWork,
	"pkg.go.dev":            CategoryWork,
	"developer.mozilla.org": CategoryWork,

	// social
	"facebook.com":    CategorySocial,
	"twitter.com":     CategorySocial,
	"x.com":           CategorySocial,
	"instagram.com":   CategorySocial,
	"linkedin.com":    CategorySocial,
	"reddit.com":      CategorySocial,
	"mastodon.social": CategorySocial,
	"tiktok.com":      CategorySocial,
	"discord.com":     CategorySocial,

	// entertainment
	"youtube.com":    CategoryEntertainment,
	"netflix.com":    CategoryEntertainment,
	"twitch.tv":      CategoryEntertainment,
	"spotify.com":    CategoryEntertainment,
	"primevideo.com": CategoryEntertainment,
	"disneyplus.com": CategoryEntertainment,
	"hulu.com":       CategoryEntertainment,

	// news
	"news.ycombinator.com": CategoryNews,
	"nytimes.com":          CategoryNews,
	"bbc.com":              CategoryNews,
	"bbc.co.uk":            CategoryNews,
	"theguardian.com":      CategoryNews,
	"cnn.com":              CategoryNews,
	"reuters.com":          CategoryNews,
	"lemonde.fr":           CategoryNews,

	// shopping
	"amazon.com":     CategoryShopping,
	"amazon.fr":      CategoryShopping,
	"ebay.com":       CategoryShopping,
	"etsy.com":       CategoryShopping,
	"aliexpress.com": CategoryShopping,
	"walmart.com":    CategoryShopping,
}

// Hostname extracts the lowercase host (without port) from a locator.
// Bare hosts like "example.com/path" are accepted. Returns "" if unparseable.
func Hostname(locator string) string {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return ""
	}
	if !strings.Contains(locator, "://") {
		locator = "https://" + locator
	}
	u, err := url.Parse(locator)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// Origin returns scheme://host[:port] of a locator, or "" if unparseable.
func Origin(locator string) string {
	u, err := url.Parse(strings.TrimSpace(locator))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// SanitizeLocator reduces a locator to its origin when privacy is enabled.
// Locators without an origin (about:blank, chrome://newtab) are kept as-is.
func SanitizeLocator(locator string, privacy bool) string {
	if !privacy {
		return locator
	}
	if o := Origin(locator); o != "" {
		return o
	}
	return locator
}

// TruncateTitle caps a title at MaxTitleLength runes.
func TruncateTitle(title string) string {
	title = strings.TrimSpace(title)
	if utf8.RuneCountInString(title) <= MaxTitleLength {
		return title
	}
	runes := []rune(title)
	return string(runes[:MaxTitleLength])
}

// IsSubdomainOf reports whether host equals domain or is a subdomain of it,
// matching on a "." boundary ("notexample.com" is not under "example.com").
func IsSubdomainOf(host, domain string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	domain = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(domain), "."))
	if host == "" || domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// Categorize derives a category from the locator's hostname.
func Categorize(locator string) Category {
	host := Hostname(locator)
	if host == "" {
		return CategoryOther
	}
	// Walk up the labels: a.b.github.com -> b.github.com -> github.com
	for h := host; h != ""; {
		if c, ok := categoryDomains[h]; ok {
			return c
		}
		i := strings.IndexByte(h, '.')
		if i < 0 {
			break
		}
		h = h[i+1:]
	}
	return CategoryOther
}
