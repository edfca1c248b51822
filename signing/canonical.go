package signing

import (
	"net/url"
	"slices"
	"strings"
)

// CanonicalString builds the string a request signature is computed over:
//
//	METHOD + "\n" + PATH + "\n" + k1=v1&k2=v2...
//
// The method is used verbatim. Keys are sorted in ascending byte order and
// only the first value of each key is included. Keys with no values
// contribute "key=".
func CanonicalString(method, path string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	var b strings.Builder

	b.WriteString(method)
	b.WriteByte('\n')
	b.WriteString(path)
	b.WriteByte('\n')

	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}

		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params.Get(k))
	}

	return b.String()
}
