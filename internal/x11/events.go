package x11

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
)

// OnEvent registers fn for every event the loop dequeues, including
// extension events (Damage) that xgbutil has no typed callbacks for.
// fn runs on the event loop goroutine.
func (c *Connection) OnEvent(fn func(ev xgb.Event)) {
	xevent.HookFun(func(xu *xgbutil.XUtil, ev interface{}) bool {
		if e, ok := ev.(xgb.Event); ok {
			fn(e)
		}
		return true
	}).Connect(c.XUtil)
}

// OnError routes asynchronous protocol errors (from unchecked requests) to
// fn instead of xgbutil's default stderr logger.
func (c *Connection) OnError(fn func(err xgb.Error)) {
	xevent.ErrorHandlerSet(c.XUtil, func(err xgb.Error) {
		fn(err)
	})
}
