package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SignalResolver assigns a TCWS level to an installation from the areas
// listed in a bulletin.
type SignalResolver struct {
	aliases map[string][]string
}

// NewSignalResolver builds a resolver from an installation → region aliases
// table, e.g. "MICT" → {"Manila", "Metro Manila", "NCR"}. The table is
// configuration data; see the catalog package.
func NewSignalResolver(aliases map[string][]string) *SignalResolver {
	normalized := make(map[string][]string, len(aliases))
	for name, list := range aliases {
		key := fold(name)
		for _, alias := range list {
			alias = fold(alias)
			if alias == "" {
				continue
			}
			normalized[key] = append(normalized[key], alias)
		}
	}
	return &SignalResolver{aliases: normalized}
}

// Resolve returns the highest level whose area list names the installation,
// directly or through one of its aliases, or nil when no level does.
func (r *SignalResolver) Resolve(installation string, signals WarningSignalMap) *int {
	if len(signals) == 0 {
		return nil
	}
	candidates := r.candidates(installation)
	if len(candidates) == 0 {
		return nil
	}

	for _, level := range signals.Levels() {
		for _, area := range signals[level] {
			area = fold(area)
			for _, c := range candidates {
				if strings.Contains(area, c) {
					lvl := level
					return &lvl
				}
			}
		}
	}
	return nil
}

// candidates returns the folded names an area may mention.
func (r *SignalResolver) candidates(installation string) []string {
	name := fold(installation)
	var out []string
	if name != "" {
		out = append(out, name)
	}
	if r != nil {
		out = append(out, r.aliases[name]...)
	}
	return out
}

// fold lowercases s and strips diacritics, so "Parañaque" matches "Paranaque".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
