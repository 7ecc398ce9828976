package domain

import "time"

// BadgeEarned is the notification payload for a newly awarded badge.
type BadgeEarned struct {
	Email        string
	Username     string
	Level        string
	LanguageName string
}

// CertificateEarned is the notification payload for a newly issued certificate.
type CertificateEarned struct {
	Email        string
	Username     string
	LanguageName string
	Level        string
	URL          string
}

// EventKind discriminates achievement feed events.
type EventKind string

const (
	EventBadge       EventKind = "badge"
	EventCertificate EventKind = "certificate"
	EventStreak      EventKind = "streak"
)

// AchievementEvent is streamed to connected clients when the pipeline
// records a new achievement for their user.
type AchievementEvent struct {
	Kind          EventKind `json:"kind"`
	LanguageID    string    `json:"languageId,omitempty"`
	LanguageName  string    `json:"languageName,omitempty"`
	Level         string    `json:"level,omitempty"`
	URL           string    `json:"url,omitempty"`
	CurrentStreak int       `json:"currentStreak,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}
