package models

// Source identifies one external metadata provider.
type Source string

const (
	SourceComicVine Source = "comicvine"
	SourceMetron    Source = "metron"
	SourceGCD       Source = "gcd"
	SourceAniList   Source = "anilist"
	SourceMAL       Source = "mal"
	SourceRatings   Source = "ratings"
)

// AllSources lists every known provider in canonical order. Sources missing
// from a caller-supplied priority list are appended in this order so merges
// stay deterministic.
var AllSources = []Source{
	SourceComicVine,
	SourceMetron,
	SourceGCD,
	SourceAniList,
	SourceMAL,
	SourceRatings,
}

// KnownSource reports whether s is one of the supported providers.
func KnownSource(s Source) bool {
	for _, known := range AllSources {
		if s == known {
			return true
		}
	}
	return false
}
