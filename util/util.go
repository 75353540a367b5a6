package util //import "github.com/avosk/shelfmark/util"

import (
	"strconv"
	"strings"
)

// ConvertStringToInt converts a string to int.
func ConvertStringToInt(src string) (int, error) {
	parsed, err := strconv.ParseInt(src, 10, 32)
	if err != nil {
		return 0, err
	}
	return int(parsed), nil
}

// HasPrefixes returns true if the string s has any of the given prefixes.
func HasPrefixes(src string, prefixes ...string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(src, prefix) {
			return true
		}
	}
	return false
}

// CanonicalizeISBN strips hyphens and spaces from an ISBN. The canonical
// form is digits with an optional trailing X (ISBN-10 check digit).
// Returns "" if what remains is not a plausible ISBN-10 or ISBN-13.
func CanonicalizeISBN(isbn string) string {
	isbn = strings.ReplaceAll(isbn, "-", "")
	isbn = strings.ReplaceAll(isbn, " ", "")
	isbn = strings.ToUpper(strings.TrimSpace(isbn))

	if len(isbn) != 10 && len(isbn) != 13 {
		return ""
	}
	for i, r := range isbn {
		if r >= '0' && r <= '9' {
			continue
		}
		// ISBN-10 may end with an X check digit
		if r == 'X' && i == 9 && len(isbn) == 10 {
			continue
		}
		return ""
	}
	return isbn
}

// SecureURL upgrades an insecure http URL to https. Some source APIs still
// hand out http cover links.
func SecureURL(rawURL string) string {
	if strings.HasPrefix(rawURL, "http://") {
		return "https://" + strings.TrimPrefix(rawURL, "http://")
	}
	return rawURL
}
