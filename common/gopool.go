package common

import (
	"context"
	"math"

	"github.com/bytedance/gopkg/util/gopool"
	"github.com/timera-ai/timera-api/common/logger"
)

var jobGoPool gopool.Pool

func init() {
	jobGoPool = gopool.NewPool("gopool.JobPool", math.MaxInt32, gopool.NewConfig())
	jobGoPool.SetPanicHandler(func(ctx context.Context, i interface{}) {
		logger.Errorf(ctx, "panic in gopool.JobPool: %v", i)
	})
}

// JobCtxGo runs f on the job worker pool; panics are logged, not propagated.
func JobCtxGo(ctx context.Context, f func()) {
	jobGoPool.CtxGo(ctx, f)
}

func SafeGoroutine(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.SysError("goroutine panic recovered")
			}
		}()
		f()
	}()
}
