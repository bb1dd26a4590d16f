package swaphistory

import "github.com/gin-gonic/gin"

type IHandler interface {
	ListSwaps(c *gin.Context)
	GetClosingPrice(c *gin.Context)
}

// QueryRecorder receives read path timings.
type QueryRecorder interface {
	RecordSwapQuery(table, status string, duration float64)
	RecordClosingPriceQuery(status string, duration float64)
}
