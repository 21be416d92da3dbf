// Package cache mirrors the latest bus positions into a Redis GEO set.
package cache

import (
	"context"
	"fmt"
	"math"

	"github.com/redis/go-redis/v9"

	"school_bus_tracker/internal/models"
)

// Connect parses a redis:// URL and checks the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// NearbyBus is one result of a proximity lookup.
type NearbyBus struct {
	BusID      string          `json:"bus_id"`
	DistanceKm float64         `json:"distance_km"`
	Location   models.GeoPoint `json:"location"`
}

// BusLocationCache keeps one GEO member per bus, keyed by bus ID.
type BusLocationCache struct {
	rdb *redis.Client
	key string
}

func NewBusLocationCache(rdb *redis.Client, key string) *BusLocationCache {
	return &BusLocationCache{rdb: rdb, key: key}
}

// Redis GEO only indexes the Web Mercator band.
const maxGeoLatitude = 85.05112878

func clampLatitude(lat float64) float64 {
	return math.Max(-maxGeoLatitude, math.Min(maxGeoLatitude, lat))
}

// StoreBusLocation overwrites the bus's cached position. Polar latitudes
// are pinned to the edge of the band Redis can index.
func (c *BusLocationCache) StoreBusLocation(ctx context.Context, busID string, point models.GeoPoint) error {
	err := c.rdb.GeoAdd(ctx, c.key, &redis.GeoLocation{
		Name:      busID,
		Longitude: point.Longitude,
		Latitude:  clampLatitude(point.Latitude),
	}).Err()
	if err != nil {
		return fmt.Errorf("geoadd %s: %w", busID, err)
	}
	return nil
}

// NearbyBuses lists cached buses within radiusKm of the point, closest first.
func (c *BusLocationCache) NearbyBuses(ctx context.Context, point models.GeoPoint, radiusKm float64, limit int) ([]NearbyBus, error) {
	locs, err := c.rdb.GeoRadius(ctx, c.key, point.Longitude, clampLatitude(point.Latitude), &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Count:     limit,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("georadius: %w", err)
	}

	out := make([]NearbyBus, 0, len(locs))
	for _, l := range locs {
		out = append(out, NearbyBus{
			BusID:      l.Name,
			DistanceKm: l.Dist,
			Location:   models.GeoPoint{Latitude: l.Latitude, Longitude: l.Longitude},
		})
	}
	return out, nil
}
