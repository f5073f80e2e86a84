// Package matching implements Identity & Matching (L1): deciding whether a
// library Track and a platform candidate describe the same recording.
package matching

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// featuredArtistRe strips "(feat. X)", "(ft. X)", "(with X)" parentheticals —
// a platform's title frequently embeds the featured artist where the
// library's does not, and vice versa.
var featuredArtistRe = regexp.MustCompile(`(?i)[\(\[](feat\.?|ft\.?|with)\s[^\)\]]*[\)\]]`)

// remasterSuffixRe strips trailing "(Remastered 2011)", "- Remaster", "(2009
// Remaster)" style qualifiers and bare bracketed years, which otherwise
// depress token-set similarity between a reissue and its original.
var remasterSuffixRe = regexp.MustCompile(`(?i)[\(\[-]\s*(\d{4}\s*)?(re-?master(ed)?|re-?issue|remix)(\s*\d{4})?\s*[\)\]]?\s*$`)

// yearSuffixRe strips a trailing bare bracketed year such as "(1999)".
var yearSuffixRe = regexp.MustCompile(`[\(\[]\s*\d{4}\s*[\)\]]\s*$`)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Normalize applies spec step 1: lowercase, NFC, strip featured-artist
// parentheticals, strip remaster/year suffixes, collapse whitespace.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.ToLower(s)
	s = featuredArtistRe.ReplaceAllString(s, "")
	s = remasterSuffixRe.ReplaceAllString(s, "")
	s = yearSuffixRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Tokenize splits a normalized string into a token set for similarity
// comparison.
func Tokenize(s string) []string {
	normalized := Normalize(s)
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}
