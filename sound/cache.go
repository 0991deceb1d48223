package sound

import "sync"

// resourceCache maps resource ids to engine handles. Only the dispatcher
// writes to it; the lock exists for the status queries on Manager and is
// never held while calling the engine.
type resourceCache struct {
	mu      sync.RWMutex
	handles map[ResourceID]Handle
}

func newResourceCache() *resourceCache {
	return &resourceCache{
		handles: make(map[ResourceID]Handle),
	}
}

// get returns the handle for id and whether it is present
func (c *resourceCache) get(id ResourceID) (Handle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	h, ok := c.handles[id]
	return h, ok
}

func (c *resourceCache) put(id ResourceID, h Handle) {
	c.mu.Lock()
	c.handles[id] = h
	c.mu.Unlock()
}

func (c *resourceCache) remove(id ResourceID) {
	c.mu.Lock()
	delete(c.handles, id)
	c.mu.Unlock()
}

// reset drops every entry and returns how many there were
func (c *resourceCache) reset() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.handles)
	clear(c.handles)
	return n
}

func (c *resourceCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.handles)
}
