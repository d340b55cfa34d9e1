package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kandev/kanban/internal/common/config"
	"github.com/kandev/kanban/internal/common/logger"
	"github.com/kandev/kanban/internal/common/tracing"
)

// HeaderEventType carries Event.Type so consumers can route without decoding
// the body.
const HeaderEventType = "Kanban-Event-Type"

// ErrWildcardSubject is returned when publishing to a subscription pattern.
var ErrWildcardSubject = errors.New("cannot publish to a wildcard subject")

// NATSEventBus carries board events between processes, so a gateway replica
// pushes changes committed by any service replica. Events travel as JSON with
// the trace context in the message headers.
type NATSEventBus struct {
	conn       *nats.Conn
	logger     *logger.Logger
	propagator propagation.TextMapPropagator
}

// NewNATSEventBus connects to cfg.URL. The initial connect must succeed;
// later disconnects reconnect up to cfg.MaxReconnects times.
func NewNATSEventBus(cfg config.NATSConfig, log *logger.Logger) (*NATSEventBus, error) {
	log = log.WithFields(zap.String("component", "nats-bus"))

	name := cfg.ClientID
	if name == "" {
		name = "kanban"
	}
	conn, err := nats.Connect(cfg.URL,
		nats.Name(name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("board events disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("board events reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			fields := []zap.Field{zap.Error(err)}
			if sub != nil {
				fields = append(fields, zap.String("subject", sub.Subject))
			}
			if errors.Is(err, nats.ErrSlowConsumer) {
				log.Warn("dropping board events for slow subscriber", fields...)
				return
			}
			log.Error("board events error", fields...)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", cfg.URL, err)
	}
	log.Info("board events connected", zap.String("url", conn.ConnectedUrl()))

	return &NATSEventBus{
		conn:       conn,
		logger:     log,
		propagator: propagation.TraceContext{},
	}, nil
}

// Publish sends event to a concrete subject such as board.changed.<owner>.
func (b *NATSEventBus) Publish(ctx context.Context, subject string, event *Event) error {
	if strings.ContainsAny(subject, "*>") {
		return fmt.Errorf("%s: %w", subject, ErrWildcardSubject)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = body
	msg.Header.Set(nats.MsgIdHdr, event.ID)
	msg.Header.Set(HeaderEventType, event.Type)
	b.propagator.Inject(ctx, propagation.HeaderCarrier(http.Header(msg.Header)))

	if err := b.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	b.logger.Debug("published board event",
		zap.String("subject", subject),
		zap.String("event_id", event.ID))
	return nil
}

// Subscribe delivers matching events in arrival order. Like the memory bus,
// at most subscriptionBuffer events wait for a slow handler; the rest are
// dropped.
func (b *NATSEventBus) Subscribe(subject string, handler EventHandler) (Subscription, error) {
	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) { b.deliver(msg, handler) })
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	if err := sub.SetPendingLimits(subscriptionBuffer, -1); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("limit %s: %w", subject, err)
	}
	// Once the server has the interest, events published by other replicas
	// reach this subscriber. A reconnect replays it anyway.
	if err := b.conn.Flush(); err != nil {
		b.logger.Warn("subscription not confirmed", zap.String("subject", subject), zap.Error(err))
	}
	return &natsSubscription{sub: sub}, nil
}

func (b *NATSEventBus) deliver(msg *nats.Msg, handler EventHandler) {
	ctx := context.Background()
	if msg.Header != nil {
		ctx = b.propagator.Extract(ctx, propagation.HeaderCarrier(http.Header(msg.Header)))
	}
	ctx, span := tracing.Tracer("event-bus").Start(ctx, "bus.deliver",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(attribute.String("subject", msg.Subject)))
	defer span.End()

	var event Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		span.RecordError(err)
		b.logger.Error("undecodable board event", zap.String("subject", msg.Subject), zap.Error(err))
		return
	}
	if err := handler(ctx, &event); err != nil {
		span.RecordError(err)
		b.logger.Error("board event handler failed",
			zap.String("subject", msg.Subject),
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
}

// Close lets subscribers finish queued events before the connection closes.
func (b *NATSEventBus) Close() {
	if b.conn == nil || b.conn.IsClosed() {
		return
	}
	if err := b.conn.Drain(); err != nil {
		b.logger.Warn("drain board events", zap.Error(err))
		b.conn.Close()
	}
}

func (b *NATSEventBus) IsConnected() bool {
	return b.conn != nil && b.conn.IsConnected()
}
