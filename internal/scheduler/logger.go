package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/dwarvesf/swap-history/internal/utils/logger"
)

// cronLogger routes cron's key/value logs into the service logger.
type cronLogger struct {
	logger *logger.Logger
}

var _ cron.Logger = cronLogger{}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.logger.Debug("[cron] "+msg, toFields(keysAndValues))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := toFields(keysAndValues)
	fields["error"] = err.Error()
	c.logger.Error("[cron] "+msg, fields)
}

func toFields(keysAndValues []interface{}) map[string]string {
	fields := make(map[string]string, len(keysAndValues)/2+1)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = fmt.Sprint(keysAndValues[i+1])
	}
	return fields
}
