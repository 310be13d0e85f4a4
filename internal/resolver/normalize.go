package resolver

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Raw bibliographic titles vary wildly in punctuation and in how volume
// numbers are embedded. The normalized title is later used as a
// filesystem path component, so consistency matters more than fidelity
// to the original punctuation.

// fullwidthReplacer folds ASCII punctuation that is unsafe or ugly in
// path components into full-width equivalents. Applied after NFKC, which
// first folds full-width letters/digits the other way.
var fullwidthReplacer = strings.NewReplacer(
	"~", "～",
	"〜", "～", // WAVE DASH
	"!", "！",
	"'", "’",
	`"`, "”",
	"%", "％",
	"&", "＆",
	":", "：",
	"*", "＊",
	"?", "？",
	"<", "＜",
	">", "＞",
	"|", "｜",
	"/", "／",
	`\`, "￥",
)

// bracketReplacer unifies every bracket kind into one angle pair so the
// volume heuristics below see a single shape.
var bracketReplacer = strings.NewReplacer(
	"(", "<", ")", ">",
	"[", "<", "]", ">",
	"{", "<", "}", ">",
	"＜", "<", "＞", ">",
	"「", "<", "」", ">",
	"〔", "<", "〕", ">",
	"【", "<", "】", ">",
	"『", "<", "』", ">",
	"《", "<", "》", ">",
)

var (
	bracketContent = regexp.MustCompile(`<.*?(\d*).*?>`)
	volumeKanji    = regexp.MustCompile(`\s+第?\s*(\d+)\s*巻`)
	volumeColon    = regexp.MustCompile(`：\s*(\d+)`)
	trailingVolume = regexp.MustCompile(`\s*<?(\d+)>?[\d<> ]*$`)
)

func normalizeText(s string) string {
	return fullwidthReplacer.Replace(norm.NFKC.String(s))
}

// NormalizeAuthors joins the author names with a full-width slash after
// stripping internal spaces.
func NormalizeAuthors(authors []string) string {
	parts := make([]string, 0, len(authors))
	for _, a := range authors {
		parts = append(parts, strings.ReplaceAll(normalizeText(a), " ", ""))
	}
	return strings.Join(parts, "／")
}

// NormalizeTitle unifies brackets and rewrites any trailing volume token
// ("第N巻", "：N", bare trailing digits) to a uniform " (N)" suffix.
func NormalizeTitle(title string) string {
	t := normalizeText(title)
	t = bracketReplacer.Replace(t)
	t = bracketContent.ReplaceAllString(t, "<$1>")
	t = volumeKanji.ReplaceAllString(t, " <$1>")
	t = volumeColon.ReplaceAllString(t, " <$1>")
	t = strings.ReplaceAll(t, "<>", "")
	t = strings.TrimRightFunc(t, unicode.IsSpace)
	t = trailingVolume.ReplaceAllString(t, " ($1)")
	return t
}

// Normalize applies both author and title normalization.
func Normalize(authors []string, title string) (string, string) {
	return NormalizeAuthors(authors), NormalizeTitle(title)
}
