// Package usersync imports the media server's account list into the store.
package usersync

import (
	"context"
	"fmt"
	"sort"

	"github.com/plexpatrol/plexpatrol/internal/domain/user"
	"github.com/plexpatrol/plexpatrol/internal/shared/logger"
)

type AccountLister interface {
	ListAccounts(ctx context.Context) (map[string]string, error)
}

type UserWriter interface {
	UpsertUser(ctx context.Context, id, displayName string, overrides user.Overrides) error
}

// Job upserts every server account by id and name. Policy fields are left
// untouched.
type Job struct {
	source AccountLister
	store  UserWriter
	logger logger.Interface
}

func NewJob(source AccountLister, store UserWriter, log logger.Interface) *Job {
	return &Job{source: source, store: store, logger: log}
}

// Execute returns the number of accounts written. A failing account does not
// stop the rest; the first such error is returned after the batch.
func (j *Job) Execute(ctx context.Context) (int, error) {
	j.logger.Infow("executing user sync")

	accounts, err := j.source.ListAccounts(ctx)
	if err != nil {
		j.logger.Errorw("failed to list server accounts", "error", err)
		return 0, fmt.Errorf("failed to list server accounts: %w", err)
	}

	ids := make([]string, 0, len(accounts))
	for id := range accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	synced := 0
	var firstErr error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if err := j.store.UpsertUser(ctx, id, accounts[id], user.Overrides{}); err != nil {
			j.logger.Warnw("failed to upsert account", "user_id", id, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to upsert account %s: %w", id, err)
			}
			continue
		}
		synced++
	}

	j.logger.Infow("user sync finished", "accounts", len(accounts), "synced", synced)
	return synced, firstErr
}
