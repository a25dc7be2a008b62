package features

import (
	"math"
	"sort"
)

// TextVectorizer learns a bounded vocabulary over a training corpus
// and transforms documents into L2-normalized TF-IDF vectors against
// it. Exported fields are what the model artifact serializes.
type TextVectorizer struct {
	MaxFeatures int
	Vocab       map[string]int // term → index, indices dense in [0, len)
	IDF         []float64      // per index, smoothed
}

// NewTextVectorizer creates an unfitted vectorizer. maxFeatures bounds
// the vocabulary; zero or negative means unbounded.
func NewTextVectorizer(maxFeatures int) *TextVectorizer {
	return &TextVectorizer{MaxFeatures: maxFeatures}
}

// Fitted reports whether Fit has run.
func (tv *TextVectorizer) Fitted() bool { return tv.Vocab != nil }

// Fit learns the vocabulary and inverse document frequencies from the
// corpus. Terms are ranked by total occurrence count across the
// corpus; ties at the MaxFeatures boundary break alphabetically so
// fitting is deterministic. Vocabulary indices are assigned in term
// order.
func (tv *TextVectorizer) Fit(corpus []string) {
	corpusCount := make(map[string]int)
	docCount := make(map[string]int)

	for _, doc := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range Tokenize(doc) {
			corpusCount[tok]++
			if _, ok := seen[tok]; !ok {
				seen[tok] = struct{}{}
				docCount[tok]++
			}
		}
	}

	terms := make([]string, 0, len(corpusCount))
	for t := range corpusCount {
		terms = append(terms, t)
	}

	if tv.MaxFeatures > 0 && len(terms) > tv.MaxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if corpusCount[terms[i]] != corpusCount[terms[j]] {
				return corpusCount[terms[i]] > corpusCount[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:tv.MaxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(corpus))
	tv.Vocab = make(map[string]int, len(terms))
	tv.IDF = make([]float64, len(terms))
	for i, t := range terms {
		tv.Vocab[t] = i
		tv.IDF[i] = math.Log((1+n)/(1+float64(docCount[t]))) + 1
	}
}

// Transform maps one document to a sparse TF-IDF vector over the
// fitted vocabulary. Out-of-vocabulary terms are ignored; the
// vocabulary never grows at transform time. Panics if the vectorizer
// has not been fitted.
func (tv *TextVectorizer) Transform(doc string) Vector {
	if !tv.Fitted() {
		panic("features: TextVectorizer.Transform called before Fit")
	}

	counts := make(map[int]float64)
	for _, tok := range Tokenize(doc) {
		if idx, ok := tv.Vocab[tok]; ok {
			counts[idx]++
		}
	}

	indices := make([]int, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	values := make([]float64, len(indices))
	var norm float64
	for i, idx := range indices {
		v := counts[idx] * tv.IDF[idx]
		values[i] = v
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range values {
			values[i] /= norm
		}
	}

	return Vector{Indices: indices, Values: values, Dim: len(tv.IDF)}
}

// Dim returns the fitted vocabulary size.
func (tv *TextVectorizer) Dim() int { return len(tv.IDF) }

// FeatureNames returns the vocabulary terms in index order.
func (tv *TextVectorizer) FeatureNames() []string {
	names := make([]string, len(tv.IDF))
	for t, i := range tv.Vocab {
		names[i] = t
	}
	return names
}
