package manifest

import "strings"

// The five standard XML special characters, mapped in one pass so replaced
// output is never rescanned.
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

var xmlUnescaper = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&amp;", "&",
)

// EscapeXML escapes text for insertion into XML attribute or element content.
func EscapeXML(text string) string {
	return xmlEscaper.Replace(text)
}

// UnescapeXML reverses EscapeXML for the five-character mapping.
func UnescapeXML(text string) string {
	return xmlUnescaper.Replace(text)
}
