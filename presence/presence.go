// Package presence derives online status and "last seen" labels from the
// heartbeat timestamp a user writes on activity.
package presence

import (
	"fmt"
	"time"
)

// OnlineWindow is how recent a heartbeat must be for a user to count as online.
const OnlineWindow = 2 * time.Minute

// IsOnline reports whether a heartbeat at lastSeen is recent enough at now.
// A missing heartbeat is offline.
func IsOnline(lastSeen *time.Time, now time.Time) bool {
	if lastSeen == nil {
		return false
	}
	return now.Sub(*lastSeen) < OnlineWindow
}

// FormatLastSeen renders the time elapsed since lastSeen. Units are
// floored, so exactly 60 minutes is "1h ago".
func FormatLastSeen(lastSeen, now time.Time) string {
	elapsed := now.Sub(lastSeen)
	if elapsed < 0 {
		elapsed = 0
	}
	minutes := int64(elapsed / time.Minute)
	hours := minutes / 60
	days := hours / 24

	switch {
	case minutes < 1:
		return "Just now"
	case minutes < 60:
		return fmt.Sprintf("%dm ago", minutes)
	case hours < 24:
		return fmt.Sprintf("%dh ago", hours)
	case days < 7:
		return fmt.Sprintf("%dd ago", days)
	}
	return lastSeen.Format("1/2/2006")
}

type Status struct {
	UserID   string     `json:"user_id"`
	Online   bool       `json:"online"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
	Label    string     `json:"label"`
}

// Describe computes the status shown for a user whose last heartbeat is lastSeen.
func Describe(userID string, lastSeen *time.Time, now time.Time) Status {
	s := Status{UserID: userID, LastSeen: lastSeen}
	switch {
	case IsOnline(lastSeen, now):
		s.Online = true
		s.Label = "Online"
	case lastSeen != nil:
		s.Label = "Last seen " + FormatLastSeen(*lastSeen, now)
	default:
		s.Label = "Offline"
	}
	return s
}
