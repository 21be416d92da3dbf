package fleettest

import (
	"context"
	"errors"
	"sync"

	"school_bus_tracker/internal/models"
)

// Push is one payload handed to the pusher.
type Push struct {
	UserID  string
	Payload interface{}
}

// Pusher records every SendToUser call.
type Pusher struct {
	mu     sync.Mutex
	pushes []Push
}

func (p *Pusher) SendToUser(userID string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = append(p.pushes, Push{UserID: userID, Payload: payload})
}

// Pushes returns the recorded calls in order.
func (p *Pusher) Pushes() []Push {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Push(nil), p.pushes...)
}

// ErrCacheDown is what a failing Cache returns.
var ErrCacheDown = errors.New("cache unavailable")

// Cache is an in-memory LocationCache. When Fail is set every write returns
// ErrCacheDown.
type Cache struct {
	mu     sync.Mutex
	Fail   bool
	points map[string]models.GeoPoint
}

func (c *Cache) StoreBusLocation(_ context.Context, busID string, point models.GeoPoint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Fail {
		return ErrCacheDown
	}
	if c.points == nil {
		c.points = make(map[string]models.GeoPoint)
	}
	c.points[busID] = point
	return nil
}

// Point returns the cached position of a bus.
func (c *Cache) Point(busID string) (models.GeoPoint, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.points[busID]
	return p, ok
}
