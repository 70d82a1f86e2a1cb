// Package geo is the distance oracle: geocode both endpoints (primary
// provider first, then the fallback), route between them, and degrade to a
// great-circle approximation when routing is down. Total provider failure is
// never an error here — callers get (0, false) and skip the fuel rule.
package geo

import (
	"context"
	"math"

	"go.uber.org/zap"
)

// roadFactor approximates road distance from the great-circle distance when
// the routing provider is unavailable.
const roadFactor = 1.4

const earthRadiusKm = 6371

type Service struct {
	geocoders []Geocoder
	router    Router
	cache     *Cache
	log       *zap.Logger
}

// NewService wires the fallback chain. Geocoders are tried in order; the
// cache is owned by the caller and scoped to a batch or process.
func NewService(log *zap.Logger, cache *Cache, router Router, geocoders ...Geocoder) *Service {
	return &Service{geocoders: geocoders, router: router, cache: cache, log: log}
}

// Resolve geocodes an address through the provider chain, read-through
// cached. The boolean is false when every provider failed.
func (s *Service) Resolve(ctx context.Context, address string) (Point, bool) {
	if address == "" {
		return Point{}, false
	}
	if p, ok := s.cache.point(address); ok {
		return p, true
	}
	for _, g := range s.geocoders {
		p, err := g.Geocode(ctx, address)
		if err != nil {
			s.log.Debug("geocoder failed", zap.String("address", address), zap.Error(err))
			continue
		}
		s.cache.setPoint(address, p)
		return p, true
	}
	s.log.Warn("all geocoders failed", zap.String("address", address))
	return Point{}, false
}

// RoadDistance returns the driving distance in km between two addresses. When
// the routing provider fails it falls back to haversine × 1.4; when geocoding
// fails entirely it returns (0, false).
func (s *Service) RoadDistance(ctx context.Context, fromAddr, toAddr string) (float64, bool) {
	key := fromAddr + "|" + toAddr
	if d, ok := s.cache.distance(key); ok {
		return d, true
	}

	from, ok := s.Resolve(ctx, fromAddr)
	if !ok {
		return 0, false
	}
	to, ok := s.Resolve(ctx, toAddr)
	if !ok {
		return 0, false
	}

	km, err := s.router.Route(ctx, from, to)
	if err != nil {
		km = Haversine(from, to) * roadFactor
		s.log.Debug("routing unavailable, falling back to haversine",
			zap.String("to", toAddr), zap.Float64("km", km), zap.Error(err))
	}

	s.cache.setDistance(key, km)
	return km, true
}

// Haversine computes the great-circle distance in km.
func Haversine(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dlat := (b.Lat - a.Lat) * math.Pi / 180
	dlon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}
