package api

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"signal_trade/internal/config"
	"signal_trade/internal/logger"
	"signal_trade/internal/service"
)

// shutdownTimeout upper bound for in-flight alerts, whose retry loops may still be running
const shutdownTimeout = 30 * time.Second

// Server webhook HTTP server
type Server struct {
	monitor        *service.MarketMonitor
	tradingService *service.TradingService
	port           string
	password       string
	engine         *gin.Engine
}

// NewServer builds the gin engine and registers routes
func NewServer(cfg config.ServerConfig, monitor *service.MarketMonitor, tradingService *service.TradingService) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())
	// client IP comes from the socket; forwarded headers are not trusted
	_ = engine.SetTrustedProxies(nil)
	engine.Use(ipWhitelist(cfg.Whitelist))

	server := &Server{
		monitor:        monitor,
		tradingService: tradingService,
		port:           cfg.Port,
		password:       cfg.Password,
		engine:         engine,
	}
	server.registerRoutes()
	return server
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.WithFields(logger.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
			"ip":     c.ClientIP(),
		}).Debug("request")
	}
}

func (s *Server) registerRoutes() {
	s.engine.POST("/order", s.handleOrder)
	s.engine.POST("/", s.handleOrder)
	s.engine.POST("/hedge", s.handleHedge)

	api := s.engine.Group("/api")
	{
		api.GET("/status", s.handleStatus)
		api.GET("/hedge/:base", s.handleHedgeExposure)
	}

	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Handler http.Handler of the server, used by tests and custom listeners
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves on the configured port until ctx ends, then drains in-flight alerts
func (s *Server) Start(ctx context.Context) error {
	logger.Infof("HTTP server listening on port %s", s.port)
	logger.Info("routes:")
	logger.Info("  POST /order, /   - trading alert")
	logger.Info("  POST /hedge      - hedge ON/OFF")
	logger.Info("  GET  /api/status - venues and market refresh times")
	logger.Info("  GET  /api/hedge/:base - hedge ledger totals")
	logger.Info("  GET  /health, /metrics")

	srv := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) authorized(password string) bool {
	if s.password == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
}

func failure(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"result": "error", "message": err.Error()})
}

// placeholder reports TradingView's unfilled alert body, which is acknowledged and ignored
func placeholder(c *gin.Context) bool {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return false
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	return strings.TrimSpace(string(body)) == tradingViewPlaceholder
}

func (s *Server) handleOrder(c *gin.Context) {
	if placeholder(c) {
		c.JSON(http.StatusOK, gin.H{"result": "ignored", "message": "TradingView placeholder received"})
		return
	}

	var alert Alert
	if err := c.ShouldBindJSON(&alert); err != nil {
		failure(c, http.StatusBadRequest, err)
		return
	}
	if !s.authorized(alert.Password) {
		failure(c, http.StatusUnauthorized, errors.New("wrong password"))
		return
	}
	intent, err := alert.Intent()
	if err != nil {
		failure(c, http.StatusBadRequest, err)
		return
	}

	// retries run to exhaustion even if the caller hangs up
	ctx := context.WithoutCancel(c.Request.Context())
	result, err := s.tradingService.Execute(ctx, intent, alert.ChangeSL)
	if err != nil {
		logger.WithFields(logger.Fields{
			"exchange": intent.Exchange,
			"symbol":   intent.Symbol(),
			"side":     alert.Side,
		}).Errorf("alert failed: %v", err)
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrUnknownExchange) {
			status = http.StatusBadRequest
		}
		failure(c, status, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": "success", "data": result})
}

func (s *Server) handleHedge(c *gin.Context) {
	var alert HedgeAlert
	if err := c.ShouldBindJSON(&alert); err != nil {
		failure(c, http.StatusBadRequest, err)
		return
	}
	if !s.authorized(alert.Password) {
		failure(c, http.StatusUnauthorized, errors.New("wrong password"))
		return
	}
	req, on, err := alert.Request()
	if err != nil {
		failure(c, http.StatusBadRequest, err)
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	result, err := s.tradingService.Hedge(ctx, req, on)
	if err != nil {
		logger.WithFields(logger.Fields{
			"exchange": req.Exchange,
			"base":     req.Base,
			"hedge":    alert.Hedge,
		}).Errorf("hedge failed: %v", err)
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrHedgeAmountMissing) || errors.Is(err, service.ErrUnknownExchange) {
			status = http.StatusBadRequest
		}
		failure(c, status, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": "success", "data": result})
}

func (s *Server) handleStatus(c *gin.Context) {
	updates := gin.H{}
	if s.monitor != nil {
		for name, t := range s.monitor.LastUpdate() {
			updates[name] = t.Format("2006-01-02 15:04:05")
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"venues":         s.tradingService.Venues(),
		"markets_loaded": updates,
	})
}

func (s *Server) handleHedgeExposure(c *gin.Context) {
	exposure, err := s.tradingService.HedgeExposure(c.Request.Context(), strings.ToUpper(c.Param("base")))
	if err != nil {
		failure(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": "success", "data": exposure})
}
