// cmd/veridex/queries.go
package main

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// buildQueryVariants turns an extracted entity set into ranked search query
// variants, most specific first. Duplicate and empty variants are dropped.
// Broad single-keyword variants come last so an adapter that succeeds early
// never floods a provider with low-precision queries.
func buildQueryVariants(entities *EntitySet) []string {
	if entities.Empty() {
		return nil
	}

	persons := entities.Persons
	orgs := entities.Organizations
	locations := entities.Locations

	var keywords []string
	for _, k := range entities.Keywords {
		if _, stop := queryStopWords[strings.ToLower(k)]; !stop {
			keywords = append(keywords, k)
		}
	}

	var variants []string
	add := func(parts ...string) {
		q := sanitizeQuery(strings.Join(parts, " "))
		if q != "" {
			variants = append(variants, q)
		}
	}

	if len(persons) > 0 {
		add(strings.Join(firstN(persons, 2), " "))
	}
	if len(persons) > 0 && len(orgs) > 0 {
		add(strings.Join(firstN(persons, 2), " "), orgs[0])
	}
	if len(persons) > 0 && len(locations) > 0 {
		add(strings.Join(firstN(persons, 2), " "), locations[0])
	}

	all := append(append(append([]string{}, persons...), orgs...), locations...)
	all = append(all, keywords...)
	if len(all) > 0 {
		add(strings.Join(firstN(all, 5), " "))
	}

	if len(persons) > 0 {
		nameParts := strings.Fields(persons[0])
		if len(nameParts) > 1 {
			add(nameParts[0])
		}
		if len(persons) > 1 && len(nameParts) > 0 {
			add(nameParts[0], persons[1])
		}
	}

	return dedupeStrings(variants, MaxQueryVariants)
}

// sanitizeQuery normalizes a query for provider URLs: NFC-normalized, single
// line, single-spaced.
func sanitizeQuery(q string) string {
	q = norm.NFC.String(q)
	q = strings.ReplaceAll(q, "\n", " ")
	q = strings.ReplaceAll(q, "\r", " ")
	q = strings.Trim(q, `"' `)
	return strings.Join(strings.Fields(q), " ")
}

// stripStopWords removes punctuation noise and filler words from free text
// before it is used as a search query.
func stripStopWords(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '?', '!', '.', ',':
			return -1
		}
		return r
	}, text)

	var kept []string
	for _, w := range strings.Fields(cleaned) {
		if _, stop := queryStopWords[strings.ToLower(w)]; !stop {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func dedupeStrings(items []string, limit int) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, it := range items {
		if it == "" || seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
