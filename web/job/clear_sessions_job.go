// Package job holds the background tasks run by the server's cron scheduler.
package job

import (
	"context"
	"time"

	"go.uber.org/atomic"

	"github.com/wanderlust/wanderlust/logger"
	"github.com/wanderlust/wanderlust/util/common"
)

const clearSessionsTimeout = time.Minute

// ExpiredSessionPurger deletes session records whose expiry has passed.
type ExpiredSessionPurger interface {
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// ClearSessionsJob removes expired sessions from the store. The mongo
// store also expires them by TTL index; the purge is harmless there.
type ClearSessionsJob struct {
	sessions ExpiredSessionPurger
	running  atomic.Bool
	now      func() time.Time
}

func NewClearSessionsJob(sessions ExpiredSessionPurger) *ClearSessionsJob {
	return &ClearSessionsJob{sessions: sessions, now: time.Now}
}

// Here Run is an interface method of the Job interface.
// A run that starts while the previous one is still going is skipped.
func (j *ClearSessionsJob) Run() {
	if !j.running.CompareAndSwap(false, true) {
		logger.Debug("clear sessions job: previous run still in progress")
		return
	}
	defer j.running.Store(false)
	defer common.Recover("clear sessions job")

	ctx, cancel := context.WithTimeout(context.Background(), clearSessionsTimeout)
	defer cancel()

	n, err := j.sessions.DeleteExpiredSessions(ctx, j.now())
	if err != nil {
		logger.Warning("clear sessions job err:", err)
		return
	}
	if n > 0 {
		logger.Infof("clear sessions job: removed %d expired sessions", n)
	}
}
