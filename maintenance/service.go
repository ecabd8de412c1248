package maintenance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/logging"
)

// Task is one periodic sweep
type Task interface {
	Name() string
	RunCycle(ctx context.Context) error
}

// Service runs a Task on a fixed interval until stopped
type Service struct {
	task     Task
	interval time.Duration

	// Control channels
	stopChan chan struct{}
	doneChan chan struct{}

	// State management
	mutex     sync.RWMutex
	isRunning bool
	lastScan  time.Time

	// Statistics
	totalScans  int64
	errorsCount int64

	logger *logging.Logger
}

// NewService creates a service for task
func NewService(task Task, interval time.Duration) (*Service, error) {
	if task == nil {
		return nil, fmt.Errorf("maintenance task cannot be nil")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("maintenance interval must be positive, got: %v", interval)
	}

	return &Service{
		task:     task,
		interval: interval,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
		logger:   logging.NewLogger("trading-service", "maintenance").WithOperation(task.Name()),
	}, nil
}

// Start runs the sweep loop in a goroutine
func (s *Service) Start(ctx context.Context) error {
	s.mutex.Lock()
	if s.isRunning {
		s.mutex.Unlock()
		return fmt.Errorf("maintenance task %s is already running", s.task.Name())
	}
	s.isRunning = true
	s.mutex.Unlock()

	s.logger.MaintenanceEvent("started", "", map[string]interface{}{"interval": s.interval.String()})
	go s.maintenanceLoop(ctx)
	return nil
}

func (s *Service) maintenanceLoop(ctx context.Context) {
	defer close(s.doneChan)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.setRunning(false)
			return
		case <-s.stopChan:
			s.setRunning(false)
			return
		case <-ticker.C:
			s.performCycle(ctx)
		}
	}
}

// performCycle runs one sweep with its own trace id
func (s *Service) performCycle(ctx context.Context) {
	startTime := time.Now()

	s.mutex.Lock()
	s.totalScans++
	s.lastScan = startTime
	s.mutex.Unlock()

	cycleCtx := logging.TraceableContext(ctx)
	if err := s.task.RunCycle(cycleCtx); err != nil {
		s.incrementErrorCount()
		s.logger.MaintenanceEvent("cycle_failed", logging.GetTraceID(cycleCtx), map[string]interface{}{
			"error":       err.Error(),
			"duration_ms": time.Since(startTime).Milliseconds(),
		})
	}
}

// Stop signals the loop and waits up to 10s for it to exit
func (s *Service) Stop() error {
	s.mutex.Lock()
	if !s.isRunning {
		s.mutex.Unlock()
		return fmt.Errorf("maintenance task %s is not running", s.task.Name())
	}
	s.mutex.Unlock()

	close(s.stopChan)

	select {
	case <-s.doneChan:
		s.logger.MaintenanceEvent("stopped", "", nil)
	case <-time.After(10 * time.Second):
		s.logger.Warn("Maintenance task stop timed out")
	}

	s.setRunning(false)
	return nil
}

// ForceCycle runs one sweep immediately on the caller's goroutine
func (s *Service) ForceCycle(ctx context.Context) {
	s.performCycle(ctx)
}

// GetStatistics returns sweep statistics
func (s *Service) GetStatistics() map[string]interface{} {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return map[string]interface{}{
		"task":         s.task.Name(),
		"is_running":   s.isRunning,
		"interval":     s.interval.String(),
		"total_scans":  s.totalScans,
		"errors_count": s.errorsCount,
		"last_scan":    s.lastScan,
	}
}

// IsRunning returns whether the loop is active
func (s *Service) IsRunning() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.isRunning
}

func (s *Service) setRunning(running bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.isRunning = running
}

func (s *Service) incrementErrorCount() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.errorsCount++
}
