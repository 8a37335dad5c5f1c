// Package clock provides the real-time source and the per-peer offset
// negotiated at handshake, per spec section 5's clock model: the host is
// authoritative for t0, and synced_now is local_now plus a fixed offset
// agreed once. local_now is read from the system wall clock, which is not
// monotonic: a step of the wall clock shifts SyncedNow by the same amount.
package clock

import "time"

// Clock exposes synced wall-clock time. The zero value is a valid,
// unsynced clock (offset 0) suitable for the host, which defines t0.
type Clock struct {
	offset float64 // seconds, added to local wall-clock time
}

// New returns a Clock with zero offset.
func New() *Clock {
	return &Clock{}
}

// SetOffset fixes the peer offset negotiated at handshake. Called once,
// by the client, after computing offset = host_time - (t1 + rtt/2).
func (c *Clock) SetOffset(offset float64) {
	c.offset = offset
}

// Offset returns the currently configured offset in seconds.
func (c *Clock) Offset() float64 {
	return c.offset
}

// Now returns local wall-clock time as seconds since the Unix epoch.
func (c *Clock) Now() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// SyncedNow returns local_now + offset, the shared time base both peers
// converge on after handshake.
func (c *Clock) SyncedNow() float64 {
	return c.Now() + c.offset
}

// NegotiateOffset computes the client-side offset from the three
// handshake timestamps: t1 (local send time), hostTime (host's synced
// time embedded in its reply), and t3 (local receive time). rtt = t3-t1,
// offset = hostTime - (t1 + rtt/2).
func NegotiateOffset(t1, hostTime, t3 float64) (offset, rtt float64) {
	rtt = t3 - t1
	offset = hostTime - (t1 + rtt/2)
	return offset, rtt
}
