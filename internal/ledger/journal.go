package ledger

// journal 单次调用的撤销日志和待发布事件
type journal struct {
	undo   []func()
	events []Event
}

func (j *journal) revertTo(undoMark, eventMark int) {
	for i := len(j.undo) - 1; i >= undoMark; i-- {
		j.undo[i]()
	}
	j.undo = j.undo[:undoMark]
	j.events = j.events[:eventMark]
}

// atomic 以原子方式执行 fn：失败或 panic 时回滚本次调用的全部写入。
// 嵌套调用失败只回滚自身，最外层调用成功后才发布事件。
func (l *Ledger) atomic(fn func() error) (err error) {
	outer := l.jr == nil
	if outer {
		l.jr = &journal{}
	}
	undoMark, eventMark := len(l.jr.undo), len(l.jr.events)

	returned := false
	defer func() {
		if !returned || err != nil {
			l.jr.revertTo(undoMark, eventMark)
		}
		if outer {
			jr := l.jr
			l.jr = nil
			if returned && err == nil {
				l.publish(jr.events)
			}
		}
	}()

	err = fn()
	returned = true
	return err
}

// onRevert 登记撤销动作
func (l *Ledger) onRevert(fn func()) {
	l.jr.undo = append(l.jr.undo, fn)
}

// emit 记录事件，提交时发布
func (l *Ledger) emit(e Event) {
	l.jr.events = append(l.jr.events, e)
}

func (l *Ledger) publish(events []Event) {
	if l.sink == nil {
		return
	}
	for _, e := range events {
		l.sink(e)
	}
}

// nonReentrant 重入保护：标志在进入时设置，退出时清除
func (l *Ledger) nonReentrant(fn func() error) error {
	if l.entered {
		return ErrReentrantCall
	}
	l.entered = true
	defer func() { l.entered = false }()
	return fn()
}

// Atomic 在账本日志内执行外部操作：fn 失败时其间的账本写入全部回滚，
// 最外层成功后才发布事件
func (l *Ledger) Atomic(fn func() error) error {
	return l.atomic(fn)
}
