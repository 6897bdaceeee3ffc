// cmd/veridex/queries_test.go
package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildQueryVariantsPersonsFirst(t *testing.T) {
	entities := &EntitySet{
		Persons:       []string{"Jane Smith", "Bob Lee"},
		Organizations: []string{"WHO"},
		Locations:     []string{"India"},
		Keywords:      []string{"vaccine", "loves"},
	}

	variants := buildQueryVariants(entities)
	assert.NotEmpty(t, variants)
	assert.Equal(t, "Jane Smith Bob Lee", variants[0])
	assert.Contains(t, variants, "Jane Smith Bob Lee WHO")
	assert.Contains(t, variants, "Jane Smith Bob Lee India")
	assert.LessOrEqual(t, len(variants), MaxQueryVariants)

	// Stop words never leak into variants.
	for _, v := range variants {
		assert.NotContains(t, v, "loves")
	}
}

func TestBuildQueryVariantsEmptyEntities(t *testing.T) {
	assert.Nil(t, buildQueryVariants(&EntitySet{}))
}

func TestBuildQueryVariantsDeduplicates(t *testing.T) {
	entities := &EntitySet{Persons: []string{"Modi"}}
	variants := buildQueryVariants(entities)

	seen := map[string]bool{}
	for _, v := range variants {
		assert.False(t, seen[v], "duplicate variant %q", v)
		seen[v] = true
	}
}

func TestSanitizeQuery(t *testing.T) {
	assert.Equal(t, "hello world", sanitizeQuery("  \"hello\n  world\"  "))
	assert.Equal(t, "", sanitizeQuery("   \n\r  "))
}

func TestStripStopWords(t *testing.T) {
	got := stripStopWords("Is the President of India visiting Paris?")
	assert.NotContains(t, got, "Is ")
	assert.Contains(t, got, "President")
	assert.Contains(t, got, "Paris")
}

func TestQueryListFallsBackToClaimText(t *testing.T) {
	claim := &Claim{Text: "Bitcoin hit a new high"}

	got := queryList(claim, nil)
	assert.Equal(t, []string{"Bitcoin hit a new high"}, got)

	got = queryList(claim, []string{"", "  "})
	assert.Equal(t, []string{"Bitcoin hit a new high"}, got)
}

func TestDedupeStringsLimit(t *testing.T) {
	got := dedupeStrings([]string{"a", "b", "a", "c", "d"}, 3)
	assert.Equal(t, []string{"a", "b", "c"}, got)

	got = dedupeStrings([]string{"a", "", "a"}, 0)
	assert.Equal(t, []string{"a"}, got)
}
