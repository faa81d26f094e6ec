package amenities

import (
	"sort"
	"strings"

	"reviewlens-backend/lib/textutil"

	"github.com/antzucaro/matchr"
)

// structured items occasionally carry icon glyphs or stray suffixes, so
// a near-exact match is accepted alongside the exact one
const labelSimilarityThreshold = 0.95

var normalizedVocabulary = func() map[string]string {
	m := make(map[string]string, len(Vocabulary))
	for _, label := range Vocabulary {
		m[textutil.NormalizeLabel(label)] = label
	}
	return m
}()

// matchLabel resolves a structured candidate item to a vocabulary label,
// or "" when it matches nothing.
func matchLabel(item string) string {
	normalized := textutil.NormalizeLabel(item)
	if label, ok := normalizedVocabulary[normalized]; ok {
		return label
	}

	best := ""
	bestScore := 0.0
	for candidate, label := range normalizedVocabulary {
		score := matchr.JaroWinkler(normalized, candidate, false)
		if score > bestScore {
			bestScore = score
			best = label
		}
	}
	if bestScore >= labelSimilarityThreshold {
		return best
	}
	return ""
}

// Extract unions two passes over the page: structured amenity items
// resolved against the vocabulary, then a literal full-text scan for each
// label. The result is a sorted, duplicate-free set.
func Extract(content PageContent) []string {
	found := map[string]struct{}{}

	for _, item := range content.Items {
		if label := matchLabel(item); label != "" {
			found[label] = struct{}{}
		}
	}

	for _, label := range Vocabulary {
		if _, ok := found[label]; ok {
			continue
		}
		if strings.Contains(content.Text, label) {
			found[label] = struct{}{}
		}
	}

	labels := make([]string, 0, len(found))
	for label := range found {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
