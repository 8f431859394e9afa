package edhrec

import (
	"regexp"
	"strings"

	"mightstone-backend/lib/textutil"
)

var (
	apostropheRegex   = regexp.MustCompile("[’'`]")
	nonAlnumRegex     = regexp.MustCompile(`[^a-z0-9]+`)
	faceSplitRegex    = regexp.MustCompile(`\s*//\s*`)
	variantSplitRegex = regexp.MustCompile(`\s*\|\s*`)
)

// Slugify converts a display name to an upstream URL segment:
// "K’rrik, Son of Yawgmoth" becomes "krrik-son-of-yawgmoth".
func Slugify(name string) string {
	piece := apostropheRegex.ReplaceAllString(strings.ToLower(name), "")
	piece = textutil.FoldASCII(piece)
	piece = nonAlnumRegex.ReplaceAllString(piece, "-")
	return strings.Trim(piece, "-")
}

func commanderFaces(name string) []string {
	raw := strings.TrimSpace(name)
	if raw == "" {
		return nil
	}
	if !strings.Contains(raw, "//") {
		return []string{strings.TrimSpace(variantSplitRegex.Split(raw, 2)[0])}
	}

	var faces []string
	for _, segment := range faceSplitRegex.Split(raw, -1) {
		primary := strings.TrimSpace(variantSplitRegex.Split(segment, 2)[0])
		switch strings.ToLower(primary) {
		case "", "back", "backside":
			continue
		}
		faces = append(faces, primary)
	}
	if len(faces) == 0 {
		return []string{strings.TrimSpace(variantSplitRegex.Split(raw, 2)[0])}
	}
	return faces
}

// SlugCandidates returns the slugs a commander may be listed under, most
// likely first: every face joined (partner pairs are listed that way), then
// the front face alone.
func SlugCandidates(name string) []string {
	faces := commanderFaces(name)
	if len(faces) == 0 {
		return nil
	}

	var pieces []string
	for _, face := range faces {
		if slug := Slugify(face); slug != "" {
			pieces = append(pieces, slug)
		}
	}

	var candidates []string
	if combined := strings.Join(pieces, "-"); combined != "" {
		candidates = append(candidates, combined)
	}
	if first := Slugify(faces[0]); first != "" && (len(candidates) == 0 || candidates[0] != first) {
		candidates = append(candidates, first)
	}
	return candidates
}
