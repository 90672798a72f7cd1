package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutWideWidth is the minimum width to show the owner column.
	LayoutWideWidth = 120
)

// Log display limits.
const (
	// LogTailLines is the number of lines read from the end of the log file.
	LogTailLines = 2000
)

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second

	// StatusFlashDuration is how long an operation result stays in the footer.
	StatusFlashDuration = 5 * time.Second
)

// Filter vocabularies offered by the listing filters. The first entry of each
// is the wildcard.
var (
	categoryChoices  = []string{"all", "tops", "bottoms", "dresses", "outerwear", "shoes", "accessories"}
	sizeChoices      = []string{"all", "xs", "s", "m", "l", "xl", "xxl"}
	conditionChoices = []string{"all", "new", "like_new", "good", "fair"}
)

// nextChoice returns the entry after current in choices, wrapping around.
// An unknown or empty current value starts from the first entry.
func nextChoice(choices []string, current string) string {
	for i, c := range choices {
		if c == current {
			return choices[(i+1)%len(choices)]
		}
	}
	if current == "" && len(choices) > 1 {
		return choices[1]
	}
	return choices[0]
}
