// Package gamification maintains completion streaks and joker balances.
package gamification

import "StakeHouse/internal/model"

// JokerEvery is the streak length that earns one joker.
const JokerEvery = 10

// CompletionResult reports the effect of a completion on a user.
type CompletionResult struct {
	NewStreak    int
	JokerGranted bool
}

// OnCompletion extends user's streak and grants a joker each time it reaches
// a multiple of JokerEvery.
func OnCompletion(user *model.User) CompletionResult {
	if user.CurrentStreakCount < 0 {
		user.CurrentStreakCount = 0
	}
	user.CurrentStreakCount++
	granted := user.CurrentStreakCount%JokerEvery == 0
	if granted {
		user.JokerCount++
	}
	return CompletionResult{NewStreak: user.CurrentStreakCount, JokerGranted: granted}
}

// OnFailureResolved breaks user's streak, whatever the resolution was.
func OnFailureResolved(user *model.User) {
	user.CurrentStreakCount = 0
}

// ConsumeJoker spends one joker. It reports false when none is left.
func ConsumeJoker(user *model.User) bool {
	if user.JokerCount <= 0 {
		return false
	}
	user.JokerCount--
	return true
}
