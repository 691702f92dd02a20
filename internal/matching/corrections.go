package matching

import (
	"strings"

	"curator/internal/catalog"
)

// CorrectionKind tags a proposed edit.
type CorrectionKind string

const (
	KindTitleMismatch  CorrectionKind = "title_mismatch"
	KindFormattingOnly CorrectionKind = "formatting_only"
	KindMissingCover   CorrectionKind = "missing_cover"
	KindMissingGenre   CorrectionKind = "missing_genre"
)

// Correction is a single proposed edit. Immutable once generated; the fix
// applier reports outcomes in a parallel result list, never by mutating
// the proposal.
type Correction struct {
	Kind           CorrectionKind `json:"kind"`
	Field          string         `json:"field"`
	CurrentValue   string         `json:"current_value"`
	SuggestedValue string         `json:"suggested_value"`
	IsSafe         bool           `json:"is_safe"`
}

// Characters ignored when deciding whether two titles differ only in
// formatting. Separator swaps like "_" vs " - " are cosmetic.
var formattingStripper = strings.NewReplacer(
	"_", "", "-", "", ":", "", "[", "", "]", "", "(", "", ")", "",
)

func strippedForm(value string) string {
	stripped := formattingStripper.Replace(strings.ToLower(value))
	return strings.Join(strings.Fields(stripped), " ")
}

// ClassifyTitle compares a local title with a suggested one. Equal
// stripped forms mean the difference is purely cosmetic and safe to apply
// unattended; anything else is a real title change and never auto-applied.
func ClassifyTitle(current, suggested string) Correction {
	correction := Correction{
		Field:          "title",
		CurrentValue:   current,
		SuggestedValue: suggested,
	}
	if strippedForm(current) == strippedForm(suggested) {
		correction.Kind = KindFormattingOnly
		correction.IsSafe = true
	} else {
		correction.Kind = KindTitleMismatch
		correction.IsSafe = false
	}
	return correction
}

// SafeByDefault reports whether a correction kind is eligible for
// unattended application on its own. Unrecognized kinds are never safe;
// that is an invariant, not an optimization.
func SafeByDefault(kind CorrectionKind) bool {
	switch kind {
	case KindFormattingOnly, KindMissingCover, KindMissingGenre:
		return true
	default:
		return false
	}
}

// BuildCorrections derives the correction list for a validated match.
func BuildCorrections(local Local, best *catalog.Candidate) []Correction {
	if best == nil {
		return nil
	}
	var corrections []Correction

	if local.Title != best.Title && best.Title != "" {
		corrections = append(corrections, ClassifyTitle(local.Title, best.Title))
	}
	if !local.HasArtwork && best.ArtworkURL != "" {
		corrections = append(corrections, Correction{
			Kind:           KindMissingCover,
			Field:          "artwork",
			SuggestedValue: best.ArtworkURL,
			IsSafe:         true,
		})
	}
	if local.Genre == "" && best.Genre != "" {
		corrections = append(corrections, Correction{
			Kind:           KindMissingGenre,
			Field:          "genre",
			SuggestedValue: best.Genre,
			IsSafe:         true,
		})
	}
	return corrections
}
