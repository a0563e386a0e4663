package compose

import (
	"net/url"
	"regexp"
)

// placeholderPattern matches the recognized template placeholder in both
// its bare and braced forms. Any other $-token is left verbatim.
var placeholderPattern = regexp.MustCompile(`\$(?:\{email_address\}|email_address\b)`)

// Personalize substitutes the recipient's percent-encoded address for
// every occurrence of the recognized placeholder. Substitution is safe
// and partial: unrecognized placeholders never cause an error and the
// surrounding text is returned byte-identical.
func Personalize(content, emailAddress string) string {
	return placeholderPattern.ReplaceAllLiteralString(content, url.QueryEscape(emailAddress))
}
