package bus

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kandev/kanban/internal/common/logger"
)

// subscriptionBuffer bounds the events queued for one slow subscriber.
// Events past it are dropped and logged.
const subscriptionBuffer = 256

// MemoryEventBus is the in-process EventBus. Each subscription has its own
// worker goroutine, so a subscriber sees events in publish order.
type MemoryEventBus struct {
	mu     sync.RWMutex
	subs   []*memorySubscription
	closed bool
	wg     sync.WaitGroup
	logger *logger.Logger
}

type delivery struct {
	ctx     context.Context
	subject string
	event   *Event
}

type memorySubscription struct {
	bus     *MemoryEventBus
	subject string
	pattern *regexp.Regexp // nil for literal subjects
	handler EventHandler

	inbox chan delivery
	done  chan struct{}
	once  sync.Once
}

func NewMemoryEventBus(log *logger.Logger) *MemoryEventBus {
	return &MemoryEventBus{
		logger: log.WithFields(zap.String("component", "memory-bus")),
	}
}

// Publish hands the event to every matching subscriber. It never blocks on a
// handler.
func (b *MemoryEventBus) Publish(ctx context.Context, subject string, event *Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("event bus is closed")
	}

	d := delivery{ctx: context.WithoutCancel(ctx), subject: subject, event: event}
	for _, sub := range b.subs {
		if matches(subject, sub.subject, sub.pattern) {
			sub.offer(d)
		}
	}

	b.logger.Debug("Published event",
		zap.String("subject", subject),
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type))
	return nil
}

func (b *MemoryEventBus) Subscribe(subject string, handler EventHandler) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("event bus is closed")
	}

	sub := &memorySubscription{
		bus:     b,
		subject: subject,
		pattern: compilePattern(subject),
		handler: handler,
		inbox:   make(chan delivery, subscriptionBuffer),
		done:    make(chan struct{}),
	}

	b.subs = append(b.subs, sub)

	b.wg.Add(1)
	go sub.run()

	b.logger.Debug("Subscribed to subject", zap.String("subject", subject))
	return sub, nil
}

// Close stops every subscription and waits for in-flight handlers.
func (b *MemoryEventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, sub := range b.subs {
		sub.stop()
	}
	b.subs = nil
	b.mu.Unlock()

	b.wg.Wait()
	b.logger.Info("Memory event bus closed")
}

func (b *MemoryEventBus) IsConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return !b.closed
}

func (s *memorySubscription) offer(d delivery) {
	select {
	case <-s.done:
	case s.inbox <- d:
	default:
		s.bus.logger.Warn("Dropping event for slow subscriber",
			zap.String("subject", d.subject),
			zap.String("event_id", d.event.ID))
	}
}

func (s *memorySubscription) run() {
	defer s.bus.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case d := <-s.inbox:
			if err := s.handler(d.ctx, d.event); err != nil {
				s.bus.logger.Error("Event handler error",
					zap.String("subject", d.subject),
					zap.Error(err))
			}
		}
	}
}

func (s *memorySubscription) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *memorySubscription) Unsubscribe() error {
	s.stop()

	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subs = removeSub(b.subs, s)
	return nil
}

func (s *memorySubscription) IsValid() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

func removeSub(subs []*memorySubscription, s *memorySubscription) []*memorySubscription {
	out := subs[:0:0]
	for _, sub := range subs {
		if sub != s {
			out = append(out, sub)
		}
	}
	return out
}

// matches checks a subject against a pattern. Supports NATS-style wildcards:
// * (single token) and > (one or more trailing tokens).
func matches(subject, pattern string, regex *regexp.Regexp) bool {
	if regex == nil {
		return subject == pattern
	}
	return regex.MatchString(subject)
}

// compilePattern converts a NATS-style pattern to a regex, or nil when the
// pattern has no wildcards.
func compilePattern(pattern string) *regexp.Regexp {
	if !strings.ContainsAny(pattern, "*>") {
		return nil
	}
	escaped := regexp.QuoteMeta(pattern)
	escaped = strings.ReplaceAll(escaped, `\*`, `[^.]+`)
	escaped = strings.ReplaceAll(escaped, `>`, `.+`)
	return regexp.MustCompile("^" + escaped + "$")
}
