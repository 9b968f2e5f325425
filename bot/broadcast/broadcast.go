// Package broadcast delivers an administrator message to every known user.
package broadcast

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sepehrmoghiseh/musifyyy/bot"
	"golang.org/x/sync/errgroup"
)

// Sender delivers text to one chat.
type Sender func(ctx context.Context, chatID int64, text string) error

// UserStore is the subset of the user repository a broadcast needs.
type UserStore interface {
	ListUserIDs(ctx context.Context) ([]int64, error)
	RemoveUser(ctx context.Context, id int64) error
}

// Report counts the outcome per recipient.
type Report struct {
	Total   int
	Success int
	Blocked int
	Failed  int
}

// Outcome classifies a delivery result.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeBlocked
	OutcomeFailed
)

var blockedMarkers = []string{
	"bot was blocked by the user",
	"user is deactivated",
	"bot can't initiate conversation",
	"chat not found",
	"forbidden",
}

// Classify maps a send error to an outcome. Errors meaning the user can no
// longer be reached count as blocked.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range blockedMarkers {
		if strings.Contains(msg, marker) {
			return OutcomeBlocked
		}
	}
	if strings.Contains(msg, "403") {
		return OutcomeBlocked
	}
	return OutcomeFailed
}

// Broadcaster fans a message out to all stored users.
type Broadcaster struct {
	store       UserStore
	send        Sender
	concurrency int
	logger      bot.Logger
}

// New creates a broadcaster sending with at most concurrency parallel sends.
func New(store UserStore, send Sender, concurrency int, logger bot.Logger) *Broadcaster {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Broadcaster{store: store, send: send, concurrency: concurrency, logger: logger}
}

// Send delivers text to every stored user. Per-recipient failures are
// counted, never returned; blocked users are removed from the store.
func (b *Broadcaster) Send(ctx context.Context, text string) (Report, error) {
	ids, err := b.store.ListUserIDs(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list users: %w", err)
	}

	var (
		mu     sync.Mutex
		report = Report{Total: len(ids)}
	)
	g := new(errgroup.Group)
	g.SetLimit(b.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			outcome := Classify(b.send(ctx, id, text))
			switch outcome {
			case OutcomeBlocked:
				if err := b.store.RemoveUser(ctx, id); err != nil && b.logger != nil {
					b.logger.Error("failed to remove blocked user", "user_id", id, "error", err)
				}
			case OutcomeFailed:
				if b.logger != nil {
					b.logger.Warn("broadcast delivery failed", "user_id", id)
				}
			}

			mu.Lock()
			switch outcome {
			case OutcomeSuccess:
				report.Success++
			case OutcomeBlocked:
				report.Blocked++
			default:
				report.Failed++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if b.logger != nil {
		b.logger.Info("broadcast finished", "total", report.Total, "success", report.Success, "blocked", report.Blocked, "failed", report.Failed)
	}
	return report, nil
}

// Text renders the report for the administrator.
func (r Report) Text() string {
	return fmt.Sprintf("📢 Broadcast finished\n\n👥 Total: %d\n✅ Delivered: %d\n🚫 Blocked (removed): %d\n⚠️ Failed: %d",
		r.Total, r.Success, r.Blocked, r.Failed)
}
