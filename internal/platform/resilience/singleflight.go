package resilience

import "golang.org/x/sync/singleflight"

// SingleFlight shares one in-flight call per key among concurrent callers.
// A panic in fn is re-raised in every waiting caller.
type SingleFlight struct {
	group singleflight.Group
}

// Do runs fn once per key at a time. shared reports whether the result was
// handed to more than one caller.
func (g *SingleFlight) Do(key string, fn func() (any, error)) (any, error, bool) {
	return g.group.Do(key, fn)
}

// Forget drops key so the next Do starts a fresh call.
func (g *SingleFlight) Forget(key string) {
	g.group.Forget(key)
}
