package app

import (
	"context"
	"time"

	"codequest-service/internal/domain"
)

// touchStreak advances the consecutive-day streak for a learner. Called
// once per newly completed question, never per attempt. Returns the user
// with the updated streak fields applied.
func (s *SubmissionService) touchStreak(ctx context.Context, user domain.User) (domain.User, error) {
	today := startOfDay(s.now())

	current := user.CurrentStreak
	switch {
	case user.LastActiveDate == nil:
		current = 1
	default:
		switch daysBetween(startOfDay(*user.LastActiveDate), today) {
		case 0:
			// Same day: streak unchanged.
		case 1:
			current++
		default:
			// Streak broken, but today's success starts a new one.
			current = 1
		}
	}

	longest := user.LongestStreak
	if current > longest {
		longest = current
	}

	if err := s.users.UpdateStreak(ctx, user.ID, current, longest, today); err != nil {
		return user, err
	}

	user.CurrentStreak = current
	user.LongestStreak = longest
	user.LastActiveDate = &today

	s.publish(user.ID, domain.AchievementEvent{
		Kind:          domain.EventStreak,
		CurrentStreak: current,
		OccurredAt:    s.now(),
	})
	return user, nil
}

// startOfDay drops the time-of-day component in UTC.
func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(earlier, later time.Time) int {
	return int(later.Sub(earlier).Hours() / 24)
}
