package domain

// LevelForPoints maps accumulated points to a level in [1,10].
// Thresholds: <100 -> 1, <250 -> 2, <500 -> 3, <1000 -> 4, <2000 -> 5,
// then one level per 500 points, capped at 10.
func LevelForPoints(points int) int {
	switch {
	case points < 100:
		return 1
	case points < 250:
		return 2
	case points < 500:
		return 3
	case points < 1000:
		return 4
	case points < 2000:
		return 5
	}
	level := 5 + (points-2000)/500
	if level > 10 {
		return 10
	}
	return level
}

// BadgesFor returns the badges earned at the given points, level, and study
// streak. Thresholds are independent, so several can apply at once.
func BadgesFor(points, level, streakDays int) []string {
	badges := []string{}
	if points >= 100 {
		badges = append(badges, "First Century")
	}
	if points >= 500 {
		badges = append(badges, "Word Warrior")
	}
	if points >= 1000 {
		badges = append(badges, "Scholar Supreme")
	}
	if level >= 5 {
		badges = append(badges, "Level Master")
	}
	if streakDays >= 7 {
		badges = append(badges, "Week Warrior")
	}
	if streakDays >= 30 {
		badges = append(badges, "Monthly Master")
	}
	return badges
}
