package htmlutil

import (
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// genericImageNames are filenames too common to be a meaningful match on
// their own (spec.md §4.4).
var genericImageNames = map[string]struct{}{
	"image.jpg": {}, "image.png": {}, "photo.jpg": {}, "thumb.jpg": {},
}

// genericImageStems are the same exclusion applied to the responsive-variant
// stem match, which strips the extension before comparing.
var genericImageStems = map[string]struct{}{
	"image": {}, "photo": {}, "thumb": {}, "pic": {},
}

// responsive variant suffixes: "-NxM" (e.g. "-300x200"), "-N" (e.g. "-300"),
// or "-<3-6 alphanumeric chars>" (e.g. "-abc123"), immediately before the
// extension.
var (
	responsiveDimSuffix  = regexp.MustCompile(`-\d+x\d+$`)
	responsiveNumSuffix  = regexp.MustCompile(`-\d+$`)
	responsiveHashSuffix = regexp.MustCompile(`-[a-zA-Z0-9]{3,6}$`)
)

// RemoveImageByURL removes the first <img> in doc whose src matches
// imageURL by exact string equality, by last-path-segment equality (unless
// that segment is a known generic name), or by responsive-variant
// equality — the two filenames match once trailing "-NxM", "-N", or
// "-<hash>" suffixes and the extension are stripped (spec.md §4.4).
func RemoveImageByURL(doc *goquery.Document, imageURL string) bool {
	targetBase := path.Base(imageURL)
	targetStem, targetHadSuffix := stripResponsiveSuffix(targetBase)

	var found *goquery.Selection
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, ok := s.Attr("src")
		if !ok {
			return true
		}
		if src == imageURL {
			found = s
			return false
		}
		base := path.Base(src)
		if base == targetBase {
			if _, generic := genericImageNames[base]; !generic {
				found = s
				return false
			}
			// Identical generic filenames are deliberately not a match
			// on their own; fall through to the responsive check below,
			// which only fires when an actual suffix was stripped.
		}
		baseStem, baseHadSuffix := stripResponsiveSuffix(base)
		if baseStem == targetStem && (baseHadSuffix || targetHadSuffix) {
			if _, generic := genericImageStems[baseStem]; !generic {
				found = s
				return false
			}
		}
		return true
	})

	if found == nil {
		return false
	}
	found.Remove()
	return true
}

// stripResponsiveSuffix removes the extension and any single trailing
// responsive-variant suffix, so "photo-300x200.jpg" and "photo-abc1.jpg"
// both collapse to "photo", reporting whether a suffix was actually found.
func stripResponsiveSuffix(filename string) (stem string, hadSuffix bool) {
	ext := path.Ext(filename)
	stem = strings.TrimSuffix(filename, ext)

	switch {
	case responsiveDimSuffix.MatchString(stem):
		return responsiveDimSuffix.ReplaceAllString(stem, ""), true
	case responsiveNumSuffix.MatchString(stem):
		return responsiveNumSuffix.ReplaceAllString(stem, ""), true
	case responsiveHashSuffix.MatchString(stem):
		return responsiveHashSuffix.ReplaceAllString(stem, ""), true
	default:
		return stem, false
	}
}
