package irc

import "time"

// scheduleReconnect schedules a new connection attempt after an
// unexpected transport close, up to opt.RetryCount attempts (nil =
// unbounded). It runs entirely on the session's own goroutine: the delay
// is a timer, not a blocking sleep, so command requests keep draining
// while a reconnect is pending.
func (c *Client) scheduleReconnect() {
	if c.requestedDisconnect {
		return
	}
	if c.opt.RetryCount != nil && c.retryCount >= *c.opt.RetryCount {
		c.events.Emit("abort", *c.opt.RetryCount)
		// No further attempt will be made: let Run return.
		c.stopOnce.Do(func() { close(c.stopCh) })
		return
	}
	c.retryCount++
	c.metrics.Reconnect()
	delay := time.Duration(c.opt.RetryDelayMS) * time.Millisecond
	c.reconnectTimer = time.AfterFunc(delay, func() {
		c.cmdCh <- func() { c.connectLocked() }
	})
}
