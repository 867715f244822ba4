package resource

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// URIBase is the origin used for synthesized object identifiers, for
// sources that provide neither a usable id nor a URL.
const URIBase = "https://chickadee.page"

// Slug lowercases text, strips diacritics and collapses everything that
// is not a letter or digit into single dashes.
func Slug(text string) string {
	stripped, _, err := transform.String(transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	), text)
	if err != nil {
		stripped = text
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(stripped) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}

// ObjectURI derives a deterministic identifier from a title. Repeated
// extraction of the same source payload must yield the same id, so the
// slug carries no random component.
func ObjectURI(title string) string {
	return URIBase + "/object/" + Slug(title)
}

// HashURI derives an identifier from the serialized form of a value,
// the last resort for entries with no id, URL or title.
func HashURI(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte{}
	}
	sum := md5.Sum(data)
	return URIBase + "/object/" + hex.EncodeToString(sum[:])
}
