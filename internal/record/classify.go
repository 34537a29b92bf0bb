package record

import (
	"net/url"
	"regexp"
	"strings"
)

// linkSchemes are the URL schemes treated as links when a text payload
// parses as a syntactically complete absolute URL.
var linkSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"ftp":   true,
	"ftps":  true,
}

// colorPattern matches #RGB, #RGBA, #RRGGBB and #RRGGBBAA hex colors.
var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// Classify maps a wire format plus raw payload to a semantic content
// type and its persisted facet tag. It is deterministic: the same
// input always yields the same pair. Unrecognized formats tag "" and
// are excluded from type facets.
func Classify(format Format, data []byte) (ContentType, string) {
	switch format {
	case FormatText:
		text := string(data)
		switch {
		case IsLink(text):
			return TypeLink, "link"
		case IsColor(text):
			return TypeColor, "color"
		default:
			return TypeText, "string"
		}
	case FormatRTF, FormatHTML:
		return TypeRichText, "rich"
	case FormatPNG, FormatTIFF:
		return TypeImage, "image"
	case FormatFileList:
		return TypeFileList, "file"
	default:
		return TypeUnknown, ""
	}
}

// IsLink reports whether s is a syntactically complete absolute URL:
// a recognized scheme, a non-empty host containing a dot or equal to
// "localhost", and an exact round-trip through URL parsing.
func IsLink(s string) bool {
	if strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if !linkSchemes[u.Scheme] {
		return false
	}
	host := u.Hostname()
	if host == "" {
		return false
	}
	if !strings.Contains(host, ".") && host != "localhost" {
		return false
	}
	return u.String() == s
}

// IsColor reports whether s is a hex color literal.
func IsColor(s string) bool {
	return colorPattern.MatchString(s)
}

// rtfControlWord matches RTF control words and group delimiters.
var rtfControlWord = regexp.MustCompile(`\\[a-zA-Z]+-?\d* ?|[{}]|\\['"][0-9a-fA-F]{2}`)

// plainTextFromRTF strips control words and group braces from an RTF
// payload. This is a best-effort projection for search, not a full
// RTF parser.
func plainTextFromRTF(data []byte) string {
	text := rtfControlWord.ReplaceAllString(string(data), "")
	return strings.TrimSpace(text)
}

var htmlTag = regexp.MustCompile(`(?s)<[^>]*>`)

// plainTextFromHTML strips markup tags from an HTML payload.
func plainTextFromHTML(data []byte) string {
	text := htmlTag.ReplaceAllString(string(data), "")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	return strings.TrimSpace(text)
}
