package bot

import (
	"strings"
	"time"
)

// UserRecord is a user who has interacted with the bot at least once.
type UserRecord struct {
	ID        int64
	Username  string
	FirstName string
	FirstSeen time.Time
	LastSeen  time.Time
}

// DisplayName returns the best human readable name for the user.
func (u *UserRecord) DisplayName() string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(u.FirstName); name != "" {
		return name
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return ""
}
