package bot

import "context"

// Logger is the minimal logging abstraction used across modules.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

// UserRepository defines storage operations for known bot users.
type UserRepository interface {
	TouchUser(ctx context.Context, id int64, username, firstName string) error
	GetUser(ctx context.Context, id int64) (*UserRecord, error)
	CountUsers(ctx context.Context) (int64, error)
	ListUserIDs(ctx context.Context) ([]int64, error)
	RemoveUser(ctx context.Context, id int64) error
}

// WorkerPool runs background tasks on a bounded set of goroutines.
// TrySubmit fails instead of blocking when the queue is full.
type WorkerPool interface {
	Submit(task func()) error
	TrySubmit(task func()) error
	Shutdown(ctx context.Context) error
	Size() int
}
