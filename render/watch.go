package render

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Notifier delivers "document may have changed" notifications. Subscribe
// returns function which cancels the subscription.
type Notifier interface {
	Subscribe(fn func()) (cancel func())
}

// Watcher re-applies guard pass to a document every time host reports
// possible change.
type Watcher struct {
	guard   *Guard
	root    *html.Node
	editing func() bool
	log     *zap.Logger

	mu     sync.Mutex
	cancel func()
}

// NewWatcher creates watcher for the document. editing is consulted on every
// notification, nil means never editing.
func NewWatcher(guard *Guard, root *html.Node, editing func() bool, log *zap.Logger) *Watcher {
	if editing == nil {
		editing = func() bool { return false }
	}
	return &Watcher{guard: guard, root: root, editing: editing, log: log.Named("watcher")}
}

// Attach registers watcher with notifier and runs initial pass. Watcher
// subscribes only once, subsequent calls do nothing.
func (w *Watcher) Attach(n Notifier) {
	w.mu.Lock()
	if w.cancel != nil {
		w.mu.Unlock()
		return
	}
	w.cancel = n.Subscribe(w.Notify)
	w.mu.Unlock()

	w.Notify()
}

// Detach cancels subscription.
func (w *Watcher) Detach() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

// Notify runs single guard pass.
func (w *Watcher) Notify() {
	if _, err := w.guard.Apply(w.root, w.editing()); err != nil {
		w.log.Warn("Unable to apply rendering", zap.Error(err))
	}
}

// Run applies pass on start and on every value received from changes until
// channel is closed or context is done.
func (w *Watcher) Run(ctx context.Context, changes <-chan struct{}) error {
	w.Notify()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			w.Notify()
		}
	}
}

// Broadcaster is a simple in-process Notifier.
type Broadcaster struct {
	mu   sync.Mutex
	next int
	subs map[int]func()
}

func (b *Broadcaster) Subscribe(fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[int]func())
	}
	id := b.next
	b.next++
	b.subs[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Publish invokes all current subscribers.
func (b *Broadcaster) Publish() {
	b.mu.Lock()
	fns := make([]func(), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
