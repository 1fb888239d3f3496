package redis

import (
	"context"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"
)

// driverLogger routes go-redis internal messages to the global logger.
type driverLogger struct{}

func (driverLogger) Printf(ctx context.Context, format string, v ...interface{}) {
	logger.Global().WithCtx(ctx).Warnf(format, v...)
}

func init() {
	goredis.SetLogger(driverLogger{})
}
