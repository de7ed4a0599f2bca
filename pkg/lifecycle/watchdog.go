package lifecycle

import (
	"sync"
	"time"

	"github.com/moneta-finance/moneta/internal/utils"
	log "github.com/sirupsen/logrus"
)

const DefaultIdleTimeout = 30 * time.Minute

// Watchdog calls onExpire once the configured timeout passes without a call
// to Reset. Cancel and reschedule happen under one lock, and every schedule
// bumps a generation so a timer that was already firing when it got
// cancelled does nothing.
type Watchdog struct {
	mu         sync.Mutex
	clock      utils.Clock
	timeout    time.Duration
	onExpire   func()
	timer      utils.Timer
	generation uint64
	armed      bool
	deadline   time.Time
}

func NewWatchdog(clock utils.Clock, timeout time.Duration, onExpire func()) *Watchdog {
	if timeout <= 0 {
		timeout = DefaultIdleTimeout
	}
	return &Watchdog{
		clock:    clock,
		timeout:  timeout,
		onExpire: onExpire,
	}
}

// Start arms the watchdog. Starting an armed watchdog restarts its countdown.
func (w *Watchdog) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.armed = true
	w.schedule()
}

// Reset pushes the deadline back by the full timeout. It is a no-op while
// the watchdog is stopped.
func (w *Watchdog) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.armed {
		return
	}
	w.schedule()
}

// Stop disarms the watchdog and cancels its pending timer.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.armed = false
	w.generation++
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Watchdog) Active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.armed
}

// Deadline returns when the watchdog fires; zero when stopped.
func (w *Watchdog) Deadline() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.armed {
		return time.Time{}
	}
	return w.deadline
}

// schedule must be called with w.mu held.
func (w *Watchdog) schedule() {
	if w.timer != nil {
		w.timer.Stop()
	}
	w.generation++
	generation := w.generation
	w.deadline = w.clock.Now().Add(w.timeout)
	w.timer = w.clock.AfterFunc(w.timeout, func() {
		w.fire(generation)
	})
}

func (w *Watchdog) fire(generation uint64) {
	w.mu.Lock()
	if !w.armed || generation != w.generation {
		w.mu.Unlock()
		return
	}
	w.armed = false
	w.timer = nil
	w.mu.Unlock()

	log.Infof("No activity for %s", w.timeout)
	w.onExpire()
}
