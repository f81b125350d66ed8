// Package progression turns total-level gains into unlock choices: it queues
// pending choices, generates offers from the still-locked pool, and applies
// the player's pick.
package progression

import "fmt"

// Milestones are the total levels at which the offer size grows.
var Milestones = []int{200, 500, 1000}

// ChoiceCount returns how many bases an offer presents at total level total.
func ChoiceCount(total int) int {
	switch {
	case total >= 1000:
		return 5
	case total >= 500:
		return 4
	case total >= 200:
		return 3
	default:
		return 2
	}
}

// NextThreshold returns the next milestone above total, or false when total
// is past the last one.
func NextThreshold(total int) (int, bool) {
	for _, m := range Milestones {
		if total < m {
			return m, true
		}
	}
	return 0, false
}

// MilestonesCrossed counts the milestones m with from < m <= to.
func MilestonesCrossed(from, to int) int {
	n := 0
	for _, m := range Milestones {
		if from < m && to >= m {
			n++
		}
	}
	return n
}

// ThresholdHint returns the chat line telling the player how far the next
// offer-size increase is.
func ThresholdHint(total int) string {
	current := ChoiceCount(total)
	next, ok := NextThreshold(total)
	if !ok {
		return fmt.Sprintf("Choice Man: You're at the max, %d options per pick.", current)
	}
	remaining := next - total
	word := "levels"
	if remaining == 1 {
		word = "level"
	}
	return fmt.Sprintf("Choice Man: %d %s until your picks show %d options (threshold: %d total).",
		remaining, word, current+1, next)
}
