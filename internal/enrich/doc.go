// Package enrich classifies German input as a word, expression or sentence
// and requests translation, gender, plural, a bilingual context example and
// an optional memory tip from the OpenAI API in a single call per term.
package enrich
