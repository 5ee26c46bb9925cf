package api

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"signal_trade/internal/logger"
)

// tradingViewIPs source addresses of TradingView webhooks
var tradingViewIPs = []string{
	"52.89.214.238",
	"34.212.75.30",
	"54.218.53.128",
	"52.32.178.7",
}

// ipWhitelist admits TradingView, loopback, private ranges and the configured extras
func ipWhitelist(extra []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(tradingViewIPs)+len(extra))
	for _, ip := range append(append([]string{}, tradingViewIPs...), extra...) {
		if parsed := net.ParseIP(ip); parsed != nil {
			allowed[parsed.String()] = true
		}
	}

	return func(c *gin.Context) {
		ip := net.ParseIP(c.ClientIP())
		if ip != nil && (allowed[ip.String()] || ip.IsLoopback() || ip.IsPrivate()) {
			c.Next()
			return
		}
		logger.Warnf("rejected request from %s", c.ClientIP())
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"result":  "error",
			"message": c.ClientIP() + " is not allowed",
		})
	}
}
