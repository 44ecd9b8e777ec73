// Package matcher ranks catalog entries by fingerprint distance to a query
// card.
package matcher

import (
	"image"
	"sort"

	"github.com/GriffinCanCode/cardscan/internal/catalog"
	"github.com/GriffinCanCode/cardscan/internal/phash"
)

// DefaultK is the number of candidates returned per detection.
const DefaultK = 20

// Match is a ranked catalog entry. Lower distance is better.
type Match struct {
	Entry    *catalog.Entry
	Distance int
}

// Rank fingerprints query and returns the k nearest catalog entries in
// ascending distance. Equal distances keep catalog order. k <= 0 returns
// every entry.
func Rank(query image.Image, cat *catalog.Catalog, k int) ([]Match, error) {
	fp, err := phash.Hash(query)
	if err != nil {
		return nil, err
	}
	return RankFingerprint(fp, cat, k)
}

// RankFingerprint is Rank for an already computed fingerprint.
func RankFingerprint(fp phash.Fingerprint, cat *catalog.Catalog, k int) ([]Match, error) {
	entries := cat.Entries()
	matches := make([]Match, 0, len(entries))
	for _, e := range entries {
		d, err := phash.Distance(fp, e.Fingerprint)
		if err != nil {
			return nil, err
		}
		matches = append(matches, Match{Entry: e, Distance: d})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if k > 0 && k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}
