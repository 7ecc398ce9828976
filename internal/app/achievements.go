package app

import (
	"context"
	"fmt"
	"math"

	"codequest-service/internal/domain"
)

// LadderEntry is one rung of the badge ladder. Entries are ordered by
// ascending threshold; award order follows ladder position, not raw
// percentage, so historical gaps cannot cause regressions.
type LadderEntry struct {
	Percent int
	Level   string
}

// DefaultLadder is the percentage ladder; override via configuration.
func DefaultLadder() []LadderEntry {
	return []LadderEntry{
		{Percent: 20, Level: "Bronze Learner"},
		{Percent: 40, Level: "Silver Coder"},
		{Percent: 60, Level: "Gold Developer"},
		{Percent: 80, Level: "Platinum Master"},
	}
}

// reconcileAchievements recomputes the user's completion percentage for
// one language and awards at most one badge plus, at 100%, one
// certificate. Awards are atomic conditional inserts, so double
// processing is benign.
func (s *SubmissionService) reconcileAchievements(ctx context.Context, user domain.User, languageID string) error {
	total, err := s.questions.TotalQuestions(ctx, languageID)
	if err != nil {
		return fmt.Errorf("count language questions: %w", err)
	}
	if total == 0 {
		return nil
	}

	completed, err := s.progress.CountCompleted(ctx, user.ID, languageID)
	if err != nil {
		return fmt.Errorf("count completed: %w", err)
	}
	percentage := int(math.Round(float64(completed) / float64(total) * 100))

	language, err := s.questions.GetLanguage(ctx, languageID)
	if err != nil {
		return err
	}

	if next, ok := NextBadge(s.ladder, earnedLevels(user, languageID), percentage); ok {
		s.awardBadge(ctx, user, language, next)
	}

	if percentage == 100 {
		s.issueCertificate(ctx, user, language)
	}
	return nil
}

// NextBadge picks the single next rung to award: its threshold must be
// reached and its position must be strictly above the highest rung
// already held. One rung per pass even if the percentage jumped past
// several thresholds.
func NextBadge(ladder []LadderEntry, earned []string, percentage int) (LadderEntry, bool) {
	highest := -1
	for i, entry := range ladder {
		for _, level := range earned {
			if level == entry.Level && i > highest {
				highest = i
			}
		}
	}
	for i, entry := range ladder {
		if percentage >= entry.Percent && i > highest {
			return entry, true
		}
	}
	return LadderEntry{}, false
}

func earnedLevels(user domain.User, languageID string) []string {
	var levels []string
	for _, badge := range user.Badges {
		if badge.LanguageID == languageID {
			levels = append(levels, badge.Level)
		}
	}
	return levels
}

func (s *SubmissionService) awardBadge(ctx context.Context, user domain.User, language domain.Language, entry LadderEntry) {
	now := s.now()
	added, err := s.users.AddBadge(ctx, user.ID, domain.Badge{
		LanguageID: language.ID,
		Level:      entry.Level,
		EarnedAt:   now,
	})
	if err != nil {
		s.log.Error("award badge", "user", user.ID, "level", entry.Level, "err", err)
		return
	}
	if !added {
		// Lost the race to a concurrent completion; the badge exists.
		return
	}

	s.log.Info("badge awarded", "user", user.ID, "level", entry.Level, "language", language.Name)
	s.notifyBadge(ctx, domain.BadgeEarned{
		Email:        user.Email,
		Username:     user.Username,
		Level:        entry.Level,
		LanguageName: language.Name,
	})
	s.publish(user.ID, domain.AchievementEvent{
		Kind:         domain.EventBadge,
		LanguageID:   language.ID,
		LanguageName: language.Name,
		Level:        entry.Level,
		OccurredAt:   now,
	})
}

// issueCertificate renders and records the terminal artifact for a fully
// completed language. Render and storage failures are logged only; a
// later resubmission retriggers the attempt.
func (s *SubmissionService) issueCertificate(ctx context.Context, user domain.User, language domain.Language) {
	for _, cert := range user.Certificates {
		if cert.LanguageID == language.ID {
			return
		}
	}

	url, err := s.certs.Issue(ctx, user.DisplayName(), language.Name, user.ID)
	if err != nil {
		s.log.Error("issue certificate", "user", user.ID, "language", language.Name, "err", err)
		return
	}

	now := s.now()
	added, err := s.users.AddCertificate(ctx, user.ID, domain.Certificate{
		LanguageID: language.ID,
		URL:        url,
		EarnedAt:   now,
	})
	if err != nil {
		s.log.Error("record certificate", "user", user.ID, "language", language.Name, "err", err)
		return
	}
	if !added {
		return
	}

	s.log.Info("certificate issued", "user", user.ID, "language", language.Name, "url", url)
	s.notifyCertificate(ctx, domain.CertificateEarned{
		Email:        user.Email,
		Username:     user.Username,
		LanguageName: language.Name,
		Level:        "Mastery",
		URL:          url,
	})
	s.publish(user.ID, domain.AchievementEvent{
		Kind:         domain.EventCertificate,
		LanguageID:   language.ID,
		LanguageName: language.Name,
		URL:          url,
		OccurredAt:   now,
	})
}

func (s *SubmissionService) notifyBadge(ctx context.Context, event domain.BadgeEarned) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendBadgeEarned(ctx, event); err != nil {
		s.log.Error("badge notification", "email", event.Email, "level", event.Level, "err", err)
	}
}

func (s *SubmissionService) notifyCertificate(ctx context.Context, event domain.CertificateEarned) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendCertificateEarned(ctx, event); err != nil {
		s.log.Error("certificate notification", "email", event.Email, "language", event.LanguageName, "err", err)
	}
}

func (s *SubmissionService) publish(userID string, event domain.AchievementEvent) {
	if s.feed == nil {
		return
	}
	s.feed.Publish(userID, event)
}
