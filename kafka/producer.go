package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/logging"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/models"
)

const (
	TopicOrderEvents = "order-events"
)

// messageWriter is the part of kafka.Writer the producer uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes order lifecycle events, keyed by mint
type Producer struct {
	brokers   []string
	topic     string
	writer    messageWriter
	logger    *logging.Logger
	isRunning bool
	mutex     sync.RWMutex
	stats     ProducerStats
}

// ProducerStats holds producer statistics
type ProducerStats struct {
	MessagesSent  int64     `json:"messages_sent"`
	MessagesError int64     `json:"messages_error"`
	BytesSent     int64     `json:"bytes_sent"`
	LastSentTime  time.Time `json:"last_sent_time"`
	LastErrorTime time.Time `json:"last_error_time"`
	LastError     string    `json:"last_error"`
}

// NewProducer creates a new Kafka producer
func NewProducer() *Producer {
	return &Producer{
		logger: logging.NewLogger("trading-service", "kafka-producer"),
	}
}

// Initialize creates the writer. Writes are asynchronous so a slow broker
// never holds up a trade; delivery results arrive through the completion hook.
func (p *Producer) Initialize(brokers []string, topic string) error {
	if len(brokers) == 0 {
		return fmt.Errorf("brokers cannot be empty")
	}
	if topic == "" {
		topic = TopicOrderEvents
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    50,
		BatchTimeout: 100 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion:   p.complete,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			p.logger.Error("Kafka producer error", map[string]interface{}{
				"message": fmt.Sprintf(msg, args...),
			})
		}),
	}
	return p.initializeWith(brokers, topic, writer)
}

func (p *Producer) initializeWith(brokers []string, topic string, writer messageWriter) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.isRunning {
		return fmt.Errorf("producer already initialized")
	}
	p.brokers = brokers
	p.topic = topic
	p.writer = writer
	p.isRunning = true

	p.logger.Info("Kafka producer initialized", map[string]interface{}{
		"brokers": brokers,
		"topic":   topic,
	})
	return nil
}

// Publish queues event for delivery
func (p *Producer) Publish(ctx context.Context, event *models.OrderEvent) error {
	if event == nil {
		return fmt.Errorf("order event cannot be nil")
	}

	p.mutex.RLock()
	if !p.isRunning || p.writer == nil {
		p.mutex.RUnlock()
		return fmt.Errorf("producer is not initialized or not running")
	}
	writer := p.writer
	p.mutex.RUnlock()

	value, err := json.Marshal(event)
	if err != nil {
		p.recordError(err)
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.Mint),
		Value: value,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}

	if err := writer.WriteMessages(ctx, message); err != nil {
		p.recordError(err)
		p.logger.Error("Failed to publish order event", map[string]interface{}{
			"mint":  event.Mint,
			"type":  event.Type,
			"error": err.Error(),
		})
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}
	return nil
}

// complete receives asynchronous delivery results
func (p *Producer) complete(messages []kafka.Message, err error) {
	if err != nil {
		p.recordError(err)
		p.logger.Warn("Order events not delivered", map[string]interface{}{
			"count": len(messages),
			"error": err.Error(),
		})
		return
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()
	for _, message := range messages {
		p.stats.MessagesSent++
		p.stats.BytesSent += int64(len(message.Value))
	}
	p.stats.LastSentTime = time.Now()
}

func (p *Producer) recordError(err error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.stats.MessagesError++
	p.stats.LastErrorTime = time.Now()
	p.stats.LastError = err.Error()
}

// Close flushes pending messages and closes the writer
func (p *Producer) Close() error {
	p.mutex.Lock()
	if !p.isRunning {
		p.mutex.Unlock()
		return nil
	}
	p.isRunning = false
	writer := p.writer
	p.mutex.Unlock()

	// the flush runs completion callbacks, which take the mutex
	if err := writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka writer", map[string]interface{}{"error": err.Error()})
		return fmt.Errorf("failed to close Kafka writer: %w", err)
	}
	p.logger.Info("Kafka producer closed")
	return nil
}

// GetStats returns producer statistics
func (p *Producer) GetStats() ProducerStats {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.stats
}

// IsRunning returns whether the producer accepts events
func (p *Producer) IsRunning() bool {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.isRunning
}
