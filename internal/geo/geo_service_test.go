package geo_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go-fieldpay/internal/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGeocoder struct {
	points map[string]geo.Point
	err    error
	calls  int32
}

func (f *fakeGeocoder) Geocode(_ context.Context, address string) (geo.Point, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return geo.Point{}, f.err
	}
	p, ok := f.points[address]
	if !ok {
		return geo.Point{}, geo.ErrNotFound
	}
	return p, nil
}

type fakeRouter struct {
	km  float64
	err error
}

func (f *fakeRouter) Route(context.Context, geo.Point, geo.Point) (float64, error) {
	return f.km, f.err
}

func TestIsHomeRegion(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"Москва, ул. Ленина 10", true},
		{"Московская обл, Химки", true},
		{"Севастопольский проспект 12", true},
		{"Санкт-Петербург, Невский 1", false},
		{"г. Казань, ул. Баумана 5", false},
		{"Химки, Юбилейный проспект 1", true}, // ambiguous resolves to home
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, geo.IsHomeRegion(tt.addr))
		})
	}
}

func TestService_Resolve_FallbackChain(t *testing.T) {
	primary := &fakeGeocoder{err: errors.New("quota exceeded")}
	fallback := &fakeGeocoder{points: map[string]geo.Point{
		"Москва, Тверская 1": {Lat: 55.757, Lon: 37.611},
	}}
	svc := geo.NewService(zap.NewNop(), geo.NewCache(), &fakeRouter{km: 10}, primary, fallback)

	p, ok := svc.Resolve(context.Background(), "Москва, Тверская 1")
	require.True(t, ok)
	assert.InDelta(t, 55.757, p.Lat, 0.001)

	// Second lookup is served from the cache; neither provider is called.
	before1, before2 := primary.calls, fallback.calls
	_, ok = svc.Resolve(context.Background(), "Москва, Тверская 1")
	require.True(t, ok)
	assert.Equal(t, before1, primary.calls)
	assert.Equal(t, before2, fallback.calls)
}

func TestService_Resolve_AllProvidersFail(t *testing.T) {
	svc := geo.NewService(zap.NewNop(), geo.NewCache(), &fakeRouter{},
		&fakeGeocoder{err: errors.New("down")},
		&fakeGeocoder{err: errors.New("down too")},
	)

	_, ok := svc.Resolve(context.Background(), "куда-то")
	assert.False(t, ok)
}

func TestService_RoadDistance_HaversineFallback(t *testing.T) {
	from := geo.Point{Lat: 55.75, Lon: 37.62}
	to := geo.Point{Lat: 55.90, Lon: 37.40}
	coder := &fakeGeocoder{points: map[string]geo.Point{"A": from, "B": to}}
	svc := geo.NewService(zap.NewNop(), geo.NewCache(),
		&fakeRouter{err: errors.New("osrm down")}, coder)

	km, ok := svc.RoadDistance(context.Background(), "A", "B")
	require.True(t, ok)
	assert.InDelta(t, geo.Haversine(from, to)*1.4, km, 0.001)
}

func TestService_RoadDistance_GeocodeFailure(t *testing.T) {
	svc := geo.NewService(zap.NewNop(), geo.NewCache(), &fakeRouter{km: 5},
		&fakeGeocoder{points: map[string]geo.Point{}})

	_, ok := svc.RoadDistance(context.Background(), "A", "B")
	assert.False(t, ok)
}

func TestHaversine(t *testing.T) {
	// Moscow to Saint Petersburg is roughly 635 km great-circle.
	msk := geo.Point{Lat: 55.7558, Lon: 37.6173}
	spb := geo.Point{Lat: 59.9311, Lon: 30.3609}
	assert.InDelta(t, 635, geo.Haversine(msk, spb), 10)

	assert.Zero(t, geo.Haversine(msk, msk))
}

func TestNominatimGeocoder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Москва, Арбат 1", r.URL.Query().Get("q"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(`[{"lat":"55.75","lon":"37.59"}]`))
	}))
	defer srv.Close()

	g := geo.NewNominatimGeocoder()
	g.BaseURL = srv.URL

	p, err := g.Geocode(context.Background(), "Москва, Арбат 1")
	require.NoError(t, err)
	assert.InDelta(t, 55.75, p.Lat, 0.001)
	assert.InDelta(t, 37.59, p.Lon, 0.001)
}

func TestNominatimGeocoder_NoResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	g := geo.NewNominatimGeocoder()
	g.BaseURL = srv.URL

	_, err := g.Geocode(context.Background(), "нигде")
	assert.ErrorIs(t, err, geo.ErrNotFound)
}

func TestOSRMRouter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"code":"Ok","routes":[{"distance":12345.0}]}`))
	}))
	defer srv.Close()

	r := geo.NewOSRMRouter()
	r.BaseURL = srv.URL

	km, err := r.Route(context.Background(), geo.Point{Lat: 55, Lon: 37}, geo.Point{Lat: 56, Lon: 37})
	require.NoError(t, err)
	assert.InDelta(t, 12.345, km, 0.001)
}

func TestYandexGeocoder_NoKey(t *testing.T) {
	g := geo.NewYandexGeocoder("")
	_, err := g.Geocode(context.Background(), "Москва")
	assert.Error(t, err)
}
