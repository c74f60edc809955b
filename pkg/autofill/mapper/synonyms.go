package mapper

import "strings"

// SynonymGroups maps a canonical profile key (normalized) to the words that
// identify the same datum in field names, ids, labels and placeholders.
var SynonymGroups = map[string][]string{
	"firstname": {"first", "fname", "given", "forename"},
	"lastname":  {"last", "lname", "surname", "family"},
	"fullname":  {"fullname", "full_name", "full name", "your name"},
	"name":      {"fullname", "full_name", "full name", "your name"},
	"email":     {"email", "e-mail", "mail"},
	"phone":     {"phone", "tel", "mobile", "cell"},
	"address":   {"address", "street", "addr"},
	"city":      {"city", "town", "locality"},
	"state":     {"state", "province", "region", "county"},
	"zip":       {"zip", "postal", "postcode"},
	"country":   {"country", "nation"},
	"company":   {"company", "organization", "organisation", "employer"},
	"jobtitle":  {"jobtitle", "job title", "position", "role", "occupation"},
	"linkedin":  {"linkedin"},
	"github":    {"github"},
	"twitter":   {"twitter", "x.com"},
	"website":   {"website", "homepage", "portfolio", "url"},
}

// GroupOf returns the synonym group a profile key belongs to. A key belongs
// to a group when its normalized form is the group's canonical key or one
// of its synonyms.
func GroupOf(key string) ([]string, bool) {
	k := Normalize(key)
	if k == "" {
		return nil, false
	}
	if g, ok := SynonymGroups[k]; ok {
		return g, true
	}
	for _, g := range SynonymGroups {
		for _, syn := range g {
			if Normalize(syn) == k {
				return g, true
			}
		}
	}
	return nil, false
}

// Normalize lower-cases key and strips everything but letters and digits.
func Normalize(key string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(key) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
