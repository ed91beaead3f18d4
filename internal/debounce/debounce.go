// 包 debounce：可取消的延迟执行；新调用取消尚未执行的旧调用并重新计时
package debounce

import (
	"sync"
	"time"
)

// Timer：可停止的计时器
type Timer interface {
	Stop() bool
}

// Scheduler：延迟调度器；默认使用 time.AfterFunc，测试中可替换为手动时钟
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Option：构造选项
type Option func(*Debouncer)

// WithScheduler：替换调度器
func WithScheduler(s Scheduler) Option { return func(d *Debouncer) { d.sched = s } }

// WithDispatch：计时到期后通过 post 投递执行，用于把回调切回单线程状态循环
func WithDispatch(post func(func())) Option { return func(d *Debouncer) { d.post = post } }

// OnCancel：旧调用被取消时的通知（用于计数）
func OnCancel(f func()) Option { return func(d *Debouncer) { d.onCancel = f } }

// Debouncer：只有窗口内最后一次调用会执行
// 约束：计时器已触发但尚未执行的旧调用通过代数校验丢弃，Stop 失败不影响正确性
type Debouncer struct {
	mu       sync.Mutex
	delay    time.Duration
	sched    Scheduler
	post     func(func())
	onCancel func()
	timer    Timer
	gen      uint64
	pending  bool
}

func New(delay time.Duration, opts ...Option) *Debouncer {
	d := &Debouncer{delay: delay, sched: realScheduler{}}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Call：安排 f 在延迟后执行，取消之前尚未执行的调用
func (d *Debouncer) Call(f func()) {
	d.mu.Lock()
	d.cancelLocked()
	d.gen++
	gen := d.gen
	d.pending = true
	d.timer = d.sched.AfterFunc(d.delay, func() {
		run := func() {
			if d.take(gen) {
				f()
			}
		}
		if d.post != nil {
			d.post(run)
			return
		}
		run()
	})
	d.mu.Unlock()
}

// Cancel：取消尚未执行的调用
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	d.cancelLocked()
	d.gen++
	d.mu.Unlock()
}

// Pending：是否存在尚未执行的调用
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Debouncer) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.pending {
		d.pending = false
		if d.onCancel != nil {
			d.onCancel()
		}
	}
}

// take：仅当 gen 仍为最新代时认领执行权
func (d *Debouncer) take(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.gen || !d.pending {
		return false
	}
	d.pending = false
	d.timer = nil
	return true
}
