package handler

import (
	"cursorrelay/internal/app/relay"
	"cursorrelay/internal/configs"
	"cursorrelay/internal/pkg/limiter"
)

type AppDeps struct {
	Hub    *relay.Hub
	Config *configs.AppConfig

	// ConnectLimiter budgets WebSocket upgrades per IP. Nil disables it.
	ConnectLimiter *limiter.IPRateLimiter
}
