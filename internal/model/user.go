package model

// User is a household member with gamification state.
type User struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Color              string `json:"color,omitempty"`
	CurrentStreakCount int    `json:"current_streak_count"`
	JokerCount         int    `json:"joker_count"`
}
