package gamification

import (
	"testing"

	"StakeHouse/internal/model"
)

func TestOnCompletion_GrantsJokerAtTen(t *testing.T) {
	u := &model.User{ID: "u1", CurrentStreakCount: 9, JokerCount: 2}

	res := OnCompletion(u)
	if res.NewStreak != 10 || !res.JokerGranted {
		t.Fatalf("expected streak 10 with joker, got %+v", res)
	}
	if u.JokerCount != 3 {
		t.Errorf("expected 3 jokers, got %d", u.JokerCount)
	}

	res = OnCompletion(u)
	if res.NewStreak != 11 || res.JokerGranted {
		t.Errorf("11th completion must not grant a joker, got %+v", res)
	}
	if u.JokerCount != 3 {
		t.Errorf("expected 3 jokers, got %d", u.JokerCount)
	}
}

func TestOnCompletion_EveryTenth(t *testing.T) {
	u := &model.User{ID: "u1"}
	for i := 0; i < 35; i++ {
		OnCompletion(u)
	}
	if u.CurrentStreakCount != 35 || u.JokerCount != 3 {
		t.Errorf("expected streak 35 and 3 jokers, got %d/%d", u.CurrentStreakCount, u.JokerCount)
	}
}

func TestOnFailureResolved_ResetsStreakOnly(t *testing.T) {
	u := &model.User{ID: "u1", CurrentStreakCount: 7, JokerCount: 1}
	OnFailureResolved(u)
	if u.CurrentStreakCount != 0 || u.JokerCount != 1 {
		t.Errorf("unexpected user after failure: %+v", u)
	}
}

func TestConsumeJoker(t *testing.T) {
	u := &model.User{ID: "u1", JokerCount: 1}
	if !ConsumeJoker(u) || u.JokerCount != 0 {
		t.Fatalf("expected joker consumed, got %+v", u)
	}
	if ConsumeJoker(u) || u.JokerCount != 0 {
		t.Errorf("joker count must not go negative, got %+v", u)
	}
}
