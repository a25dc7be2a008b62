// Package features converts trial descriptions into fixed-dimension
// numeric vectors: a TF-IDF weighted term block over a bounded
// vocabulary, concatenated with one-hot indicator blocks for the
// categorical fields. The fit/transform split mirrors the usual
// vectorizer contract: fitting learns vocabulary and category maps
// from the training corpus, transforming is deterministic against the
// fitted state.
package features

import (
	"regexp"
	"strings"
)

// tokenPattern matches words of two or more word characters, the
// conventional vectorizer token definition.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Tokenize lower-cases the text, extracts word tokens and drops
// English stop words.
func Tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)

	tokens := make([]string, 0, len(raw))
	for _, t := range raw {
		if _, stop := stopWords[t]; stop {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

// stopWords is the standard English stop-word list.
var stopWords = func() map[string]struct{} {
	words := []string{
		"a", "about", "above", "across", "after", "afterwards", "again",
		"against", "all", "almost", "alone", "along", "already", "also",
		"although", "always", "am", "among", "amongst", "amount", "an",
		"and", "another", "any", "anyhow", "anyone", "anything", "anyway",
		"anywhere", "are", "around", "as", "at", "back", "be", "became",
		"because", "become", "becomes", "becoming", "been", "before",
		"beforehand", "behind", "being", "below", "beside", "besides",
		"between", "beyond", "both", "bottom", "but", "by", "call", "can",
		"cannot", "could", "do", "done", "down", "due", "during", "each",
		"eight", "either", "eleven", "else", "elsewhere", "empty", "enough",
		"etc", "even", "ever", "every", "everyone", "everything",
		"everywhere", "except", "few", "fifteen", "fifty", "first", "five",
		"for", "former", "formerly", "forty", "four", "from", "front",
		"full", "further", "get", "give", "go", "had", "has", "have", "he",
		"hence", "her", "here", "hereafter", "hereby", "herein", "hereupon",
		"hers", "herself", "him", "himself", "his", "how", "however",
		"hundred", "if", "in", "indeed", "interest", "into", "is", "it",
		"its", "itself", "keep", "last", "latter", "latterly", "least",
		"less", "made", "many", "may", "me", "meanwhile", "might", "mine",
		"more", "moreover", "most", "mostly", "move", "much", "must", "my",
		"myself", "name", "namely", "neither", "never", "nevertheless",
		"next", "nine", "no", "nobody", "none", "nor", "not", "nothing",
		"now", "nowhere", "of", "off", "often", "on", "once", "one", "only",
		"onto", "or", "other", "others", "otherwise", "our", "ours",
		"ourselves", "out", "over", "own", "part", "per", "perhaps",
		"please", "put", "rather", "re", "same", "see", "seem", "seemed",
		"seeming", "seems", "serious", "several", "she", "should", "show",
		"side", "since", "six", "sixty", "so", "some", "somehow", "someone",
		"something", "sometime", "sometimes", "somewhere", "still", "such",
		"take", "ten", "than", "that", "the", "their", "them", "themselves",
		"then", "thence", "there", "thereafter", "thereby", "therefore",
		"therein", "thereupon", "these", "they", "third", "this", "those",
		"though", "three", "through", "throughout", "thru", "thus", "to",
		"together", "too", "top", "toward", "towards", "twelve", "twenty",
		"two", "under", "until", "up", "upon", "us", "very", "via", "was",
		"we", "well", "were", "what", "whatever", "when", "whence",
		"whenever", "where", "whereafter", "whereas", "whereby", "wherein",
		"whereupon", "wherever", "whether", "which", "while", "whither",
		"who", "whoever", "whole", "whom", "whose", "why", "will", "with",
		"within", "without", "would", "yet", "you", "your", "yours",
		"yourself", "yourselves",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()
