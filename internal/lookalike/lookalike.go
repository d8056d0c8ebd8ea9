// Package lookalike flags addresses that visually resemble a trusted one.
//
// This is the "wallet poisoning" defense: attackers seed dust transfers from
// addresses that share a prefix or suffix with one the user already trusts,
// hoping the victim copies the wrong counterparty out of their own history.
// The comparison here is a heuristic early-warning signal, not a
// cryptographic check; an exact match is a strict subset of it.
package lookalike

import "strings"

// edgeLen is how many normalized characters of each end take part in the
// comparison.
const edgeLen = 4

// confusables maps visually ambiguous characters to a canonical
// representative before comparison.
var confusables = map[rune]rune{
	'0': 'O',
	'1': 'I',
	'l': 'I',
	'5': 'S',
	'8': 'B',
	'2': 'Z',
	'6': 'G',
	'9': 'g',
	'q': 'g',
}

// Normalize maps confusable characters to their canonical representative and
// upper-cases the result.
func Normalize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if repl, ok := confusables[r]; ok {
			return repl
		}
		return r
	}, s)
	return strings.ToUpper(mapped)
}

// prefix returns the normalized leading edge of an address.
func prefix(s string) string {
	n := Normalize(s)
	if len(n) <= edgeLen {
		return n
	}
	return n[:edgeLen]
}

// suffix returns the normalized trailing edge. For segmented notation
// (dash-delimited, as in principal text form) the final segment is compared;
// otherwise the literal last characters are.
func suffix(s string) string {
	if i := strings.LastIndex(s, "-"); i >= 0 {
		s = s[i+1:]
	}
	n := Normalize(s)
	if len(n) <= edgeLen {
		return n
	}
	return n[len(n)-edgeLen:]
}

// Match reports whether candidate resembles known: the normalized first four
// characters or the normalized last four match. Either end is enough.
func Match(candidate, known string) bool {
	if candidate == "" || known == "" {
		return false
	}
	return prefix(candidate) == prefix(known) || suffix(candidate) == suffix(known)
}

// IsSimilar reports whether candidate resembles any address in known.
func IsSimilar(candidate string, known []string) bool {
	for _, k := range known {
		if Match(candidate, k) {
			return true
		}
	}
	return false
}
