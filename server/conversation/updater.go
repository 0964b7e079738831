package conversation

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const updateTimeout = 30 * time.Second

// Update is one deferred conversation write: append the turn, then refresh
// the room summary.
type Update struct {
	RoomID   string
	Question string
	Answer   string
}

// Updater applies conversation updates off the request path. A single
// worker drains a bounded queue in FIFO order, so updates for one room are
// applied in enqueue order. Once enqueued an update runs to completion (or
// fails) independently of the originating request: the caller already has
// its response, so failures are logged, counted, and otherwise terminal.
type Updater struct {
	svc       *Service
	queue     chan *Update
	wg        sync.WaitGroup
	once      sync.Once
	logger    *slog.Logger
	onFailure func() // optional failure hook, used for metrics
}

// NewUpdater creates and starts an updater with the given queue size.
func NewUpdater(svc *Service, queueSize int, logger *slog.Logger) *Updater {
	if queueSize <= 0 {
		queueSize = 128
	}
	if logger == nil {
		logger = slog.Default()
	}

	u := &Updater{
		svc:    svc,
		queue:  make(chan *Update, queueSize),
		logger: logger,
	}
	u.wg.Add(1)
	go u.processQueue()
	return u
}

// OnFailure registers a hook invoked once per failed update. Must be called
// before the first Enqueue.
func (u *Updater) OnFailure(hook func()) {
	u.onFailure = hook
}

// Enqueue schedules a deferred update. Returns false when the queue is
// full; the update is then dropped, which costs one summary refresh cycle,
// not the already-sent response.
func (u *Updater) Enqueue(update *Update) bool {
	select {
	case u.queue <- update:
		u.logger.Debug("conversation update enqueued",
			"room_id", update.RoomID,
			"queue_size", len(u.queue))
		return true
	default:
		u.logger.Warn("conversation update queue full, dropping update",
			"room_id", update.RoomID)
		u.fail()
		return false
	}
}

func (u *Updater) processQueue() {
	defer u.wg.Done()

	for update := range u.queue {
		u.apply(update)
	}
}

// apply runs with a background context: deferred work is not cancellable by
// client disconnect.
func (u *Updater) apply(update *Update) {
	ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
	defer cancel()

	if err := u.svc.AppendTurn(ctx, update.RoomID, update.Question, update.Answer); err != nil {
		u.logger.Error("deferred turn persistence failed",
			"room_id", update.RoomID, "error", err)
		u.fail()
		return
	}
	if err := u.svc.RefreshSummary(ctx, update.RoomID); err != nil {
		u.logger.Error("deferred summary refresh failed",
			"room_id", update.RoomID, "error", err)
		u.fail()
		return
	}

	u.logger.Debug("conversation update applied", "room_id", update.RoomID)
}

func (u *Updater) fail() {
	if u.onFailure != nil {
		u.onFailure()
	}
}

// Stop drains the queue and waits for the worker to finish. Safe to call
// more than once.
func (u *Updater) Stop() {
	u.once.Do(func() {
		close(u.queue)
	})
	u.wg.Wait()
}
