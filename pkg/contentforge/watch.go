package contentforge

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// WatchStatus represents the state of a polling watch
type WatchStatus string

const (
	WatchStatusRunning   WatchStatus = "running"
	WatchStatusCompleted WatchStatus = "completed"
	WatchStatusFailed    WatchStatus = "failed"
	WatchStatusStopped   WatchStatus = "stopped"
)

// watch is the shared polling core: a fixed-interval re-fetch whose stop
// condition is re-evaluated each tick against the most recently fetched
// value, never against a value captured at scheduling time.
type watch[T any] struct {
	updates chan T
	cancel  context.CancelFunc
	done    chan struct{}

	status atomic.Value // WatchStatus

	mu      sync.RWMutex
	last    T
	hasLast bool
	lastErr error
}

// watchConfig wires a concrete resource into the polling core.
type watchConfig[T any] struct {
	interval time.Duration

	// fetch retrieves the latest server state, bypassing staleness, and
	// commits it to the query cache under the key's sequence discipline.
	fetch func(ctx context.Context) (T, error)

	// terminal reports whether the just-fetched value ends the watch.
	// Evaluated per response. Nil means the watch only ends on Stop.
	terminal func(value T) bool
}

func newWatch[T any](ctx context.Context, cfg watchConfig[T]) *watch[T] {
	ctx, cancel := context.WithCancel(ctx)

	w := &watch[T]{
		updates: make(chan T, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	w.status.Store(WatchStatusRunning)

	go w.run(ctx, cfg)
	return w
}

func (w *watch[T]) run(ctx context.Context, cfg watchConfig[T]) {
	defer close(w.done)
	defer close(w.updates)

	ticker := time.NewTicker(cfg.interval)
	defer ticker.Stop()

	// First fetch happens immediately; the ticker paces the rest.
	if stop := w.cycle(ctx, cfg); stop {
		return
	}

	for {
		select {
		case <-ctx.Done():
			w.status.Store(WatchStatusStopped)
			return
		case <-ticker.C:
			if stop := w.cycle(ctx, cfg); stop {
				return
			}
		}
	}
}

// cycle performs one poll. Returns true when the watch should end.
func (w *watch[T]) cycle(ctx context.Context, cfg watchConfig[T]) bool {
	value, err := cfg.fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			w.status.Store(WatchStatusStopped)
			return true
		}
		w.setErr(err)
		if !IsRetryable(err) {
			w.status.Store(WatchStatusFailed)
			return true
		}
		// Transient failure: keep polling.
		return false
	}

	w.setLast(value)
	w.push(value)

	if cfg.terminal != nil && cfg.terminal(value) {
		w.status.Store(WatchStatusCompleted)
		return true
	}
	return false
}

// push delivers latest-wins: a slow consumer sees the newest value, not a
// backlog.
func (w *watch[T]) push(value T) {
	for {
		select {
		case w.updates <- value:
			return
		default:
			select {
			case <-w.updates:
			default:
			}
		}
	}
}

// Updates streams fetched values. Closed when the watch ends.
func (w *watch[T]) Updates() <-chan T {
	return w.updates
}

// Stop ends the watch. Safe to call more than once.
func (w *watch[T]) Stop() {
	w.cancel()
}

// Status returns the current watch status.
func (w *watch[T]) Status() WatchStatus {
	return w.status.Load().(WatchStatus)
}

// Err returns the last fetch error, if any.
func (w *watch[T]) Err() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastErr
}

// Last returns the most recently fetched value.
func (w *watch[T]) Last() (T, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.last, w.hasLast
}

// Wait blocks until the watch ends or the timeout elapses, returning the
// last fetched value.
func (w *watch[T]) Wait(ctx context.Context, timeout time.Duration) (T, error) {
	var zero T

	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	select {
	case <-waitCtx.Done():
		w.Stop()
		if ctx.Err() == nil {
			return zero, ErrWatchTimeout
		}
		return zero, errors.Wrap(ctx.Err(), "watch cancelled")
	case <-w.done:
	}

	switch w.Status() {
	case WatchStatusCompleted:
		last, ok := w.Last()
		if !ok {
			return zero, errors.New("watch completed without a value")
		}
		return last, nil
	case WatchStatusFailed:
		return zero, w.Err()
	default:
		return zero, errors.New("watch stopped before reaching a terminal state")
	}
}

func (w *watch[T]) setErr(err error) {
	w.mu.Lock()
	w.lastErr = err
	w.mu.Unlock()
}

func (w *watch[T]) setLast(value T) {
	w.mu.Lock()
	w.last = value
	w.hasLast = true
	w.mu.Unlock()
}

// ArticleWatch polls a single article until it reaches a terminal status.
type ArticleWatch struct {
	*watch[*Article]
}

func newArticleWatch(ctx context.Context, s *articleService, articleID string, interval time.Duration) *ArticleWatch {
	cache := s.client.cache
	key := articleKey(articleID)

	return &ArticleWatch{watch: newWatch(ctx, watchConfig[*Article]{
		interval: interval,
		fetch: func(ctx context.Context) (*Article, error) {
			seq := cache.begin(key)
			article, err := s.fetch(ctx, articleID)
			if err != nil {
				return nil, err
			}
			cache.commit(key, seq, article)
			return article, nil
		},
		terminal: func(a *Article) bool {
			return a.IsTerminal()
		},
	})}
}

// ArticleListWatch polls the article list at a fixed cadence until stopped.
type ArticleListWatch struct {
	*watch[[]*Article]
}

func newArticleListWatch(ctx context.Context, s *articleService, limit int, interval time.Duration) *ArticleListWatch {
	cache := s.client.cache
	key := articleListKey(limit)

	return &ArticleListWatch{watch: newWatch(ctx, watchConfig[[]*Article]{
		interval: interval,
		fetch: func(ctx context.Context) ([]*Article, error) {
			seq := cache.begin(key)
			var articles []*Article
			if err := s.client.do(ctx, http.MethodGet, "/articles", listQuery(limit), nil, &articles); err != nil {
				return nil, err
			}
			cache.commit(key, seq, articles)
			return articles, nil
		},
	})}
}

// CampaignWatch polls a campaign while it is active; a campaign leaving the
// active state ends the watch.
type CampaignWatch struct {
	*watch[*Campaign]
}

func newCampaignWatch(ctx context.Context, s *campaignService, campaignID string, interval time.Duration) *CampaignWatch {
	cache := s.client.cache
	key := campaignKey(campaignID)

	return &CampaignWatch{watch: newWatch(ctx, watchConfig[*Campaign]{
		interval: interval,
		fetch: func(ctx context.Context) (*Campaign, error) {
			seq := cache.begin(key)
			campaign, err := s.fetch(ctx, campaignID)
			if err != nil {
				return nil, err
			}
			cache.commit(key, seq, campaign)
			return campaign, nil
		},
		terminal: func(c *Campaign) bool {
			return !c.IsActive()
		},
	})}
}
