// Package reconcile associates each commit in a release range with the
// merged PR that contains it, or marks it standalone. The cache is the
// source of truth once populated: each cache miss costs one lookup call,
// and a single lookup resolves every commit the PR contains, so commits
// sharing a PR never trigger redundant external calls on later runs.
package reconcile

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/kingrea/git-glance/internal/cache"
	"github.com/kingrea/git-glance/internal/lookup"
	"github.com/kingrea/git-glance/internal/model"
)

// ErrCorrupt marks a cache inconsistency: a commit record points at a PR
// number with no PR record behind it.
var ErrCorrupt = errors.New("reconcile: cached commit references a missing PR record")

// CommitReader supplies commit metadata for standalone commits so their
// records can be cached. Implemented by gitrepo.Repository.
type CommitReader interface {
	CommitInfo(oid string) (model.Commit, error)
}

// Result is the partition of a release range. Both maps are keyed for
// order-independent, idempotent comparison across runs.
type Result struct {
	PRs        map[string]model.PullRequest
	Standalone map[string]model.Commit
}

// Reconciler drives cache lookups and external PR lookups over a bounded
// worker pool.
type Reconciler struct {
	Cache   *cache.Store
	Lookup  lookup.Client
	Commits CommitReader
	Workers int
	OnStep  func() // called once per processed commit, under the state lock
}

// Reconcile partitions the commit set. Per-commit failures are collected
// and returned alongside the partial result; failed commits stay uncached
// so the next run retries them.
func (r *Reconciler) Reconcile(ctx context.Context, oids []string) (Result, []error) {
	result := Result{
		PRs:        make(map[string]model.PullRequest),
		Standalone: make(map[string]model.Commit),
	}
	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan string)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for oid := range jobs {
				err := r.reconcileOne(ctx, oid, &result, &mu)
				mu.Lock()
				if err != nil {
					errs = append(errs, err)
				}
				if r.OnStep != nil {
					r.OnStep()
				}
				mu.Unlock()
			}
		}()
	}

	for _, oid := range oids {
		select {
		case jobs <- oid:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return result, append(errs, ctx.Err())
		}
	}
	close(jobs)
	wg.Wait()
	return result, errs
}

func (r *Reconciler) reconcileOne(ctx context.Context, oid string, result *Result, mu *sync.Mutex) error {
	mu.Lock()
	done, err := r.fromCache(oid, result)
	mu.Unlock()
	if done || err != nil {
		return err
	}

	// Cache miss: the lookup runs outside the lock so the pool can overlap
	// external calls. Two commits of the same PR may race here; the write
	// is idempotent so the loser just overwrites identical records.
	pr, err := r.Lookup.Find(ctx, oid)
	if err != nil {
		return errors.Wrapf(err, "commit %s", oid)
	}

	mu.Lock()
	defer mu.Unlock()

	// Another worker may have resolved this commit's PR meanwhile.
	if done, err := r.fromCache(oid, result); done || err != nil {
		return err
	}

	if pr == nil {
		info, err := r.Commits.CommitInfo(oid)
		if err != nil {
			return err
		}
		if err := r.Cache.PutCommit(info); err != nil {
			return err
		}
		result.Standalone[oid] = info
		return nil
	}

	// Write the PR and all its commit records as one unit while holding
	// the lock, so no reader ever observes a partially recorded PR.
	if err := r.Cache.PutPR(*pr); err != nil {
		return err
	}
	queried := false
	for _, c := range pr.Commits {
		if err := r.Cache.PutCommit(c); err != nil {
			return err
		}
		if c.OID == oid {
			queried = true
		}
	}
	if !queried {
		// Search matched a commit the PR record does not list (e.g. a
		// squash-merge result); record it so future runs skip the lookup.
		info, err := r.Commits.CommitInfo(oid)
		if err != nil {
			return err
		}
		if err := r.Cache.PutCommit(info.WithPR(pr.Number)); err != nil {
			return err
		}
	}
	result.PRs[pr.Number] = *pr
	return nil
}

// fromCache resolves oid from cached state. Returns done=false only on a
// clean cache miss. Callers hold the state lock.
func (r *Reconciler) fromCache(oid string, result *Result) (done bool, err error) {
	record, err := r.Cache.Commit(oid)
	if err != nil {
		return false, err
	}
	if record == nil {
		return false, nil
	}
	if record.PR == nil {
		result.Standalone[oid] = *record
		return true, nil
	}
	pr, err := r.Cache.PR(*record.PR)
	if err != nil {
		return false, err
	}
	if pr == nil {
		return false, errors.Wrapf(ErrCorrupt, "commit %s -> pr %s", oid, *record.PR)
	}
	result.PRs[pr.Number] = *pr
	return true, nil
}
