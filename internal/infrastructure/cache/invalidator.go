package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"anthrilo/pkg/logger"
)

// DataChangedChannel is the PostgreSQL NOTIFY channel raised by the entity
// store's write triggers. The payload is the name of the changed table.
const DataChangedChannel = "anthrilo_data_changed"

// InvalidationListener is called after the cache is purged.
type InvalidationListener func(table string, purged int)

// Purger drops cached reports.
type Purger interface {
	Purge(ctx context.Context) (int, error)
}

// Invalidator purges the report cache whenever the entity store announces a
// change via PostgreSQL LISTEN/NOTIFY, so cached reports never outlive the
// data they were computed from by more than the notification delay.
type Invalidator struct {
	pool  *pgxpool.Pool
	cache Purger

	listeners   []InvalidationListener
	listenersMu sync.RWMutex

	// Lifecycle
	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// NewInvalidator creates an invalidator for cache listening on pool.
func NewInvalidator(pool *pgxpool.Pool, cache Purger) *Invalidator {
	return &Invalidator{pool: pool, cache: cache}
}

// OnInvalidation registers a listener called after every purge.
func (i *Invalidator) OnInvalidation(listener InvalidationListener) {
	i.listenersMu.Lock()
	defer i.listenersMu.Unlock()
	i.listeners = append(i.listeners, listener)
}

// Start begins listening for NOTIFY events.
func (i *Invalidator) Start(ctx context.Context) {
	i.lifecycleMu.Lock()
	defer i.lifecycleMu.Unlock()
	if i.started {
		return
	}
	i.ctx, i.cancel = context.WithCancel(ctx)
	i.started = true

	i.wg.Add(1)
	go i.listenLoop()
	logger.Info(i.ctx, "report cache invalidator started", "channel", DataChangedChannel)
}

// Stop gracefully stops the listener.
func (i *Invalidator) Stop() {
	i.lifecycleMu.Lock()
	if !i.started {
		i.lifecycleMu.Unlock()
		return
	}
	cancel := i.cancel
	i.started = false
	i.cancel = nil
	i.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
	}
	i.wg.Wait()
	logger.Info(context.Background(), "report cache invalidator stopped")
}

func (i *Invalidator) listenLoop() {
	defer i.wg.Done()

	for {
		select {
		case <-i.ctx.Done():
			return
		default:
		}

		conn, err := i.pool.Acquire(i.ctx)
		if err != nil {
			if i.ctx.Err() != nil {
				return
			}
			logger.Error(i.ctx, "failed to acquire connection for LISTEN", "error", err)
			time.Sleep(time.Second)
			continue
		}

		if _, err = conn.Exec(i.ctx, "LISTEN "+DataChangedChannel); err != nil {
			logger.Error(i.ctx, "failed to LISTEN", "error", err)
			conn.Release()
			time.Sleep(time.Second)
			continue
		}

		// Changes made while no connection was listening went unseen.
		i.handleNotification(i.ctx, "")

		i.waitForNotifications(conn)
		conn.Release()
	}
}

func (i *Invalidator) waitForNotifications(conn *pgxpool.Conn) {
	for {
		select {
		case <-i.ctx.Done():
			return
		default:
		}

		ctx, cancel := context.WithTimeout(i.ctx, 30*time.Second)
		notification, err := conn.Conn().WaitForNotification(ctx)
		cancel()

		if err != nil {
			if i.ctx.Err() != nil {
				return
			}
			if conn.Conn().IsClosed() {
				logger.Warn(i.ctx, "LISTEN connection lost, reconnecting", "error", err)
				return
			}
			continue
		}

		logger.Debug(i.ctx, "received notification",
			"channel", notification.Channel,
			"payload", notification.Payload)

		i.handleNotification(i.ctx, notification.Payload)
	}
}

// handleNotification purges the cache and notifies listeners. Listener panics
// are recovered so one faulty listener cannot stop invalidation.
func (i *Invalidator) handleNotification(ctx context.Context, table string) {
	purged, err := i.cache.Purge(ctx)
	if err != nil {
		logger.Error(ctx, "failed to purge report cache", "table", table, "error", err)
		return
	}
	logger.Debug(ctx, "report cache purged", "table", table, "entries", purged)

	i.listenersMu.RLock()
	defer i.listenersMu.RUnlock()
	for _, listener := range i.listeners {
		func(l InvalidationListener) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error(ctx, "listener panic recovered", "table", table, "panic", r)
				}
			}()
			l(table, purged)
		}(listener)
	}
}
