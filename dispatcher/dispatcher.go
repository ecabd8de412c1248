package dispatcher

import (
	"context"
	"sync"
	"time"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/interfaces"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/logging"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/models"
)

const (
	// latencies beyond one hour mean skewed clocks
	maxPlausibleLatencyUs = 3_600_000_000
	clampedLatencyUs      = 1000
)

// Event is one decoded DEX event handed to subscribers
type Event struct {
	Kind     models.EventKind
	Payload  interface{}
	Metadata *models.EventMetadata
	Latency  *models.LatencyInfo
	Raw      *models.DexEvent
}

// Subscriber receives events synchronously on the reader goroutine
type Subscriber interface {
	HandleEvent(ctx context.Context, event *Event)
}

// SubscriberFunc adapts a function to Subscriber
type SubscriberFunc func(ctx context.Context, event *Event)

// HandleEvent calls f
func (f SubscriberFunc) HandleEvent(ctx context.Context, event *Event) {
	f(ctx, event)
}

// Dispatcher classifies decoded frames and fans events out to subscribers
type Dispatcher struct {
	mutex       sync.RWMutex
	subscribers []Subscriber

	metrics interfaces.MetricsRecorder
	now     func() time.Time
	logger  *logging.Logger
}

// New creates a dispatcher. metrics may be nil.
func New(metrics interfaces.MetricsRecorder) *Dispatcher {
	return &Dispatcher{
		metrics: metrics,
		now:     time.Now,
		logger:  logging.NewLogger("trading-service", "dispatcher"),
	}
}

// Subscribe registers s for every subsequent event
func (d *Dispatcher) Subscribe(s Subscriber) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.subscribers = append(d.subscribers, s)
}

// Dispatch handles one top-level message. Control messages are logged and
// counted, events are delivered to every subscriber in registration order.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *models.ServerMessage) {
	if msg == nil {
		return
	}

	switch {
	case msg.Event != nil:
		d.dispatchEvent(ctx, msg.Event)
	case msg.Ack != nil:
		d.recordControl("ack")
		d.logger.Debug("Server ack", map[string]interface{}{
			"message_id": msg.Ack.MessageID,
			"success":    msg.Ack.Success,
			"message":    msg.Ack.Message,
		})
	case msg.Error != nil:
		d.recordControl("error")
		d.logger.Warn("Server error", map[string]interface{}{
			"error_code":    msg.Error.ErrorCode,
			"error_message": msg.Error.ErrorMessage,
			"request_id":    msg.Error.RequestID,
		})
	case msg.Heartbeat != nil:
		d.recordControl("heartbeat")
		d.logger.Debug("Server heartbeat", map[string]interface{}{
			"timestamp":         msg.Heartbeat.Timestamp,
			"connected_clients": msg.Heartbeat.ConnectedClients,
		})
	default:
		d.recordControl("empty")
	}
}

func (d *Dispatcher) dispatchEvent(ctx context.Context, raw *models.DexEvent) {
	payload, metadata := raw.Payload()
	if payload == nil {
		d.logger.Debug("Event without payload", map[string]interface{}{"event_type": raw.EventType})
		d.recordControl("empty_event")
		return
	}

	event := &Event{
		Kind:     raw.Kind,
		Payload:  payload,
		Metadata: metadata,
		Raw:      raw,
	}
	if metadata != nil && metadata.GrpcRecvUs != 0 {
		event.Latency = ComputeLatency(d.now().UnixMicro(), metadata.GrpcRecvUs)
	}

	if d.metrics != nil {
		var latency time.Duration
		if event.Latency != nil {
			latency = time.Duration(event.Latency.LatencyUs) * time.Microsecond
		}
		d.metrics.RecordEvent(string(event.Kind), latency)
	}

	d.mutex.RLock()
	subscribers := d.subscribers
	d.mutex.RUnlock()

	for _, s := range subscribers {
		s.HandleEvent(ctx, event)
	}
}

func (d *Dispatcher) recordControl(kind string) {
	if d.metrics != nil {
		d.metrics.RecordControlMessage(kind)
	}
}

// ComputeLatency returns the receipt latency between the producer's receive
// time and now. Implausible values collapse to a 1ms sentinel and negative
// values report their magnitude.
func ComputeLatency(nowUs, grpcRecvUs int64) *models.LatencyInfo {
	latency := nowUs - grpcRecvUs
	switch {
	case latency > maxPlausibleLatencyUs || latency < -maxPlausibleLatencyUs:
		latency = clampedLatencyUs
	case latency < 0:
		latency = -latency
	}

	return &models.LatencyInfo{
		GrpcRecvUs:   grpcRecvUs,
		ClientRecvUs: nowUs,
		LatencyUs:    latency,
		LatencyMs:    float64(latency) / 1000,
	}
}
