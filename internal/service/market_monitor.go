package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"signal_trade/internal/exchange"
	"signal_trade/internal/logger"
)

// MarketMonitor keeps venue market metadata (steps, ticks, contract sizes) fresh
type MarketMonitor struct {
	venues   []exchange.Exchange
	interval time.Duration

	mu         sync.RWMutex
	lastUpdate map[string]time.Time
}

// NewMarketMonitor monitor refreshing venues every interval
func NewMarketMonitor(venues []exchange.Exchange, interval time.Duration) *MarketMonitor {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &MarketMonitor{
		venues:     venues,
		interval:   interval,
		lastUpdate: make(map[string]time.Time),
	}
}

// Start loads markets once and refreshes them in the background until ctx ends.
// It fails only when no venue could be loaded.
func (m *MarketMonitor) Start(ctx context.Context) error {
	logger.Info("loading venue markets...")
	if loaded := m.refresh(ctx); loaded == 0 && len(m.venues) > 0 {
		return errors.New("no venue markets could be loaded")
	}

	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.refresh(ctx)
			}
		}
	}()
	return nil
}

func (m *MarketMonitor) refresh(ctx context.Context) int {
	loaded := 0
	for _, v := range m.venues {
		if err := v.LoadMarkets(ctx); err != nil {
			logger.Errorf("[%s] load markets failed: %v", v.Name(), err)
			continue
		}
		m.mu.Lock()
		m.lastUpdate[v.Name()] = time.Now()
		m.mu.Unlock()
		loaded++
	}
	return loaded
}

// LastUpdate last successful refresh per venue
func (m *MarketMonitor) LastUpdate() map[string]time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]time.Time, len(m.lastUpdate))
	for k, v := range m.lastUpdate {
		out[k] = v
	}
	return out
}
