package app

import (
	"context"
	"errors"

	"choromap/internal/logger"
)

// ErrStopped：状态循环已退出
var ErrStopped = errors.New("loop stopped")

// Loop：单协程状态循环，所有核心状态只在 Run 所在协程上读写
type Loop struct {
	ch   chan func()
	done chan struct{}
}

func NewLoop(buf int) *Loop {
	if buf <= 0 {
		buf = 256
	}
	return &Loop{ch: make(chan func(), buf), done: make(chan struct{})}
}

// Post：投递任务；循环已退出时丢弃并返回 false
func (l *Loop) Post(f func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.ch <- f:
		return true
	case <-l.done:
		return false
	}
}

// Do：投递任务并等待其执行完毕
func (l *Loop) Do(ctx context.Context, f func()) error {
	fin := make(chan struct{})
	if !l.Post(func() { f(); close(fin) }) {
		return ErrStopped
	}
	select {
	case <-fin:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
}

// Run：执行任务直到 ctx 取消；只能调用一次
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	logger.L().Debug("loop_start")
	for {
		select {
		case <-ctx.Done():
			logger.L().Debug("loop_stop")
			return
		case f := <-l.ch:
			f()
		}
	}
}
