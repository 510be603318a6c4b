package wishlist

import (
	"strings"
	"unicode"
)

// English stop words, the NLTK list.
var stopWords = toSet(`i me my myself we our ours ourselves you your yours yourself yourselves
he him his himself she her hers herself it its itself they them their theirs themselves
what which who whom this that these those am is are was were be been being have has had
having do does did doing a an the and but if or because as until while of at by for with
about against between into through during before after above below to from up down in out
on off over under again further then once here there when where why how all any both each
few more most other some such no nor not only own same so than too very s t can will just
don should now d ll m o re ve y ain aren couldn didn doesn hadn hasn haven isn ma mightn
mustn needn shan shouldn wasn weren won wouldn want need looking`)

func toSet(words string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(words) {
		set[w] = struct{}{}
	}
	return set
}

// ExtractKeywords lower-cases text, keeps alphanumeric tokens that are not
// stop words and de-duplicates them in first-seen order.
func ExtractKeywords(text string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool, len(tokens))
	keywords := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, stop := stopWords[token]; stop || seen[token] {
			continue
		}
		seen[token] = true
		keywords = append(keywords, token)
	}
	return keywords
}

// KeywordsFor merges the keywords of every text, de-duplicated across all of them.
func KeywordsFor(texts ...[]string) []string {
	seen := make(map[string]bool)
	merged := []string{}
	for _, group := range texts {
		for _, text := range group {
			for _, kw := range ExtractKeywords(text) {
				if seen[kw] {
					continue
				}
				seen[kw] = true
				merged = append(merged, kw)
			}
		}
	}
	return merged
}
