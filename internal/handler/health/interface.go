package health

import (
	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"

	"github.com/dwarvesf/swap-history/internal/consts"
)

// IHealthHandler defines the interface for health check handlers
type IHealthHandler interface {
	Basic(c *gin.Context)
	Database(c *gin.Context)
	External(c *gin.Context)
	Jobs(c *gin.Context)
}

// BreakerState is an upstream guarded by a circuit breaker.
type BreakerState interface {
	State() gobreaker.State
}

// PendingSizer reports the pending ids tracked per source.
type PendingSizer interface {
	Sizes() map[consts.SourceKind]int
}
