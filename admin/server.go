package admin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/executor"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/interfaces"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/logging"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/models"
	store "github.com/cryptoKingdom88/memeCoinBackend/tradingService/redis"
)

// OrderReader is the read side of the order store
type OrderReader interface {
	GetOrder(ctx context.Context, mint string) (*models.Order, error)
	ListOrders(ctx context.Context) ([]*models.Order, error)
}

// HealthCheck reports whether one dependency is usable
type HealthCheck func(ctx context.Context) error

// Options wires the server to the rest of the service. Nil handlers leave
// their route unregistered.
type Options struct {
	Port      int
	Orders    OrderReader
	Seller    interfaces.OrderSeller
	Metrics   http.Handler
	WebSocket gin.HandlerFunc
	Checks    map[string]HealthCheck
}

// Server is the operator HTTP API
type Server struct {
	options    Options
	engine     *gin.Engine
	httpServer *http.Server
	logger     *logging.Logger
}

const healthCheckTimeout = 2 * time.Second

// NewServer builds the router
func NewServer(options Options) (*Server, error) {
	if options.Orders == nil {
		return nil, fmt.Errorf("order reader cannot be nil")
	}

	s := &Server{
		options: options,
		logger:  logging.NewLogger("trading-service", "admin"),
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(AccessLogger(s.logger, "/health", "/metrics"), Recovery(s.logger))

	engine.GET("/health", s.health)
	engine.GET("/orders", s.listOrders)
	engine.GET("/orders/:mint", s.getOrder)
	if options.Seller != nil {
		engine.POST("/orders/:mint/sell", s.sellOrder)
	}
	if options.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(options.Metrics))
	}
	if options.WebSocket != nil {
		engine.GET("/ws", options.WebSocket)
	}

	s.engine = engine
	return s, nil
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start binds the port and serves in the background
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.options.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on admin port %d: %w", s.options.Port, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Admin server stopped", map[string]interface{}{"error": err.Error()})
		}
	}()

	s.logger.Info("Admin server started", map[string]interface{}{"port": s.options.Port})
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("admin server shutdown: %w", err)
	}
	s.logger.Info("Admin server stopped")
	return nil
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(s.options.Checks))
	for name := range s.options.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	checks := make(map[string]string, len(names))
	for _, name := range names {
		if err := s.options.Checks[name](ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status":    state,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// listOrders returns tracked orders, optionally filtered by ?status=
func (s *Server) listOrders(c *gin.Context) {
	orders, err := s.options.Orders.ListOrders(c.Request.Context())
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}

	if status := c.Query("status"); status != "" {
		filtered := orders[:0]
		for _, order := range orders {
			if string(order.Status) == status {
				filtered = append(filtered, order)
			}
		}
		orders = filtered
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt < orders[j].CreatedAt })
	if orders == nil {
		orders = []*models.Order{}
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

func (s *Server) getOrder(c *gin.Context) {
	order, err := s.options.Orders.GetOrder(c.Request.Context(), c.Param("mint"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// sellOrder runs an explicit sell. The sell outlives the request so a client
// disconnect cannot strand the order in Selling.
func (s *Server) sellOrder(c *gin.Context) {
	mint := c.Param("mint")
	ctx := logging.TraceableContext(context.WithoutCancel(c.Request.Context()))

	if err := s.options.Seller.SellOrder(ctx, mint); err != nil {
		s.logger.WithToken(mint).WithTraceID(logging.GetTraceID(ctx)).Warn("Manual sell failed", map[string]interface{}{
			"error": err.Error(),
		})
		s.writeError(c, err)
		return
	}

	s.logger.TradeEvent(mint, "manual_sell", true, map[string]interface{}{
		"trace_id": logging.GetTraceID(ctx),
	})
	c.JSON(http.StatusOK, gin.H{"mint": mint, "status": models.OrderStatusSold})
}

func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, executor.ErrNotSellable), errors.Is(err, store.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
