package postify

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// FeedStore holds the canonical post collection. Its only writer is Refresh,
// which replaces the collection wholesale.
//
// Fetches never overlap: a weight-1 semaphore serializes them. Every fetch
// takes a sequence number and its result is applied only if that number is
// still the latest issued; Clear bumps the sequence so a response that lands
// after logout is dropped.
//
// Clear also starts a new generation. A refresh is bound to the generation
// current when it was requested: one that is still queued when the
// generation changes never fetches, and one that completes after the change
// is dropped.
type FeedStore struct {
	backend Backend
	logger  Logger
	clock   Clock
	fetch   *semaphore.Weighted

	mu        sync.RWMutex
	posts     []Post
	loading   bool
	refreshed time.Time

	seq       uint64 // last fetch sequence issued, bumped by Clear
	gen       uint64 // session generation, bumped by Clear
	requested uint64 // refresh requests issued
	covered   uint64 // highest request satisfied by a completed fetch
	lastErr   error  // result of the fetch that set covered
}

// NewFeedStore creates an empty FeedStore that fetches from backend.
func NewFeedStore(backend Backend, logger Logger, clock Clock) *FeedStore {
	return &FeedStore{
		backend: backend,
		logger:  logger,
		clock:   clock,
		fetch:   semaphore.NewWeighted(1),
	}
}

// Generation returns the current session generation. Callers that refresh
// on behalf of work started earlier capture it when that work starts and
// pass it to RefreshFor.
func (f *FeedStore) Generation() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.gen
}

// Refresh reloads the whole feed from the backend for the current generation.
func (f *FeedStore) Refresh(ctx context.Context) error {
	return f.RefreshFor(ctx, f.Generation())
}

// RefreshFor reloads the whole feed on behalf of generation gen. If the
// store has been cleared since gen, nothing is fetched or applied.
//
// If a fetch is already in flight the call waits for it and then for a
// fresh fetch, since the in-flight one may predate the caller's mutation.
// Callers queued behind the same fetch share one follow-up fetch.
func (f *FeedStore) RefreshFor(ctx context.Context, gen uint64) error {
	f.mu.Lock()
	f.requested++
	ticket := f.requested
	f.mu.Unlock()

	if err := f.fetch.Acquire(ctx, 1); err != nil {
		return &FetchError{Err: err}
	}
	defer f.fetch.Release(1)

	f.mu.Lock()
	if gen != f.gen {
		f.mu.Unlock()
		f.logger.Debug("skipping refresh from an ended session", "gen", gen)
		return nil
	}
	if f.covered >= ticket {
		// A fetch that started after this request already completed.
		err := f.lastErr
		f.mu.Unlock()
		return err
	}
	f.seq++
	seq := f.seq
	covers := f.requested
	f.loading = true
	f.mu.Unlock()

	f.logger.Debug("refreshing feed", "seq", seq)
	posts, err := f.backend.ListPosts(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false

	if err != nil {
		ferr := &FetchError{Err: err}
		f.covered, f.lastErr = covers, ferr
		f.logger.Error("feed refresh failed", "seq", seq, "error", err)
		return ferr
	}

	if seq != f.seq || gen != f.gen {
		// Superseded by Clear while the request was in flight.
		f.logger.Debug("discarding stale feed response", "seq", seq, "latest", f.seq)
		f.covered, f.lastErr = covers, nil
		return nil
	}

	f.posts = clonePosts(posts)
	f.refreshed = f.clock.Now()
	f.covered, f.lastErr = covers, nil
	f.logger.Debug("feed refreshed", "seq", seq, "posts", len(posts))
	return nil
}

// Snapshot returns a copy of the collection together with the loading flag,
// read under one lock.
func (f *FeedStore) Snapshot() (posts []Post, loading bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return clonePosts(f.posts), f.loading
}

// All returns a copy of the collection in backend order.
func (f *FeedStore) All() []Post {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return clonePosts(f.posts)
}

// Find returns the post with the given id.
func (f *FeedStore) Find(id string) (Post, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for i := range f.posts {
		if f.posts[i].ID == id {
			return f.posts[i].clone(), true
		}
	}
	return Post{}, false
}

// Len returns the number of posts held.
func (f *FeedStore) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.posts)
}

// Loading reports whether a fetch is outstanding.
func (f *FeedStore) Loading() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.loading
}

// LastRefreshed returns when the collection was last replaced, or the zero
// time if it has not been loaded since creation or the last Clear.
func (f *FeedStore) LastRefreshed() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.refreshed
}

// Clear empties the collection, invalidates any fetch in flight and starts
// a new generation so queued refreshes are skipped.
func (f *FeedStore) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = nil
	f.refreshed = time.Time{}
	f.seq++
	f.gen++
}

