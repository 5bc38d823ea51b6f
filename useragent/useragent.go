// Package useragent derives a browser family and device class from a
// raw User-Agent header. Both are best-effort substring/regex matches
// used only to enrich submission metadata.
package useragent

import (
	"regexp"
	"strings"
)

var (
	tabletRe  = regexp.MustCompile(`(?i)ipad|tablet|kindle|silk`)
	mobileRe  = regexp.MustCompile(`(?i)mobile|iphone|ipod|windows phone|blackberry`)
	androidRe = regexp.MustCompile(`(?i)android`)
)

// Browser returns the browser family from the user agent. The order of
// checks matters: Chrome's UA contains "Safari" and Edge's contains
// "Chrome".
func Browser(ua string) string {
	switch {
	case ua == "":
		return ""
	case strings.Contains(ua, "Edg/") || strings.Contains(ua, "Edge/"):
		return "Edge"
	case strings.Contains(ua, "OPR/") || strings.Contains(ua, "Opera"):
		return "Opera"
	case strings.Contains(ua, "Firefox/"):
		return "Firefox"
	case strings.Contains(ua, "Chrome/"):
		return "Chrome"
	case strings.Contains(ua, "Safari/"):
		return "Safari"
	case strings.Contains(ua, "MSIE") || strings.Contains(ua, "Trident/"):
		return "Internet Explorer"
	default:
		return "Other"
	}
}

// DeviceType classifies the user agent as Mobile, Tablet or Desktop.
// Android UAs without the "Mobile" token are tablets by convention.
func DeviceType(ua string) string {
	switch {
	case ua == "":
		return ""
	case tabletRe.MatchString(ua):
		return "Tablet"
	case mobileRe.MatchString(ua):
		return "Mobile"
	case androidRe.MatchString(ua):
		return "Tablet"
	default:
		return "Desktop"
	}
}
