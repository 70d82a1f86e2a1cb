package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound means the provider answered but had no result for the address.
var ErrNotFound = errors.New("geo: no result")

const clientTimeout = 10 * time.Second

// Geocoder resolves a free-form address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Point, error)
}

// Router computes driving distance between two points.
type Router interface {
	Route(ctx context.Context, from, to Point) (float64, error)
}

// --- Yandex Geocoder (primary) ---

type YandexGeocoder struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func NewYandexGeocoder(apiKey string) *YandexGeocoder {
	return &YandexGeocoder{
		APIKey:  apiKey,
		BaseURL: "https://geocode-maps.yandex.ru/1.x/",
		Client:  &http.Client{Timeout: clientTimeout},
	}
}

func (g *YandexGeocoder) Geocode(ctx context.Context, address string) (Point, error) {
	if g.APIKey == "" {
		return Point{}, errors.New("yandex: api key not configured")
	}

	q := url.Values{}
	q.Set("apikey", g.APIKey)
	q.Set("geocode", address)
	q.Set("format", "json")

	var payload struct {
		Response struct {
			GeoObjectCollection struct {
				FeatureMember []struct {
					GeoObject struct {
						Point struct {
							Pos string `json:"pos"`
						} `json:"Point"`
					} `json:"GeoObject"`
				} `json:"featureMember"`
			} `json:"GeoObjectCollection"`
		} `json:"response"`
	}
	if err := getJSON(ctx, g.Client, g.BaseURL+"?"+q.Encode(), &payload); err != nil {
		return Point{}, fmt.Errorf("yandex: %w", err)
	}

	members := payload.Response.GeoObjectCollection.FeatureMember
	if len(members) == 0 {
		return Point{}, ErrNotFound
	}
	// "pos" is "lon lat".
	parts := strings.Fields(members[0].GeoObject.Point.Pos)
	if len(parts) != 2 {
		return Point{}, ErrNotFound
	}
	lon, err1 := strconv.ParseFloat(parts[0], 64)
	lat, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil {
		return Point{}, ErrNotFound
	}
	return Point{Lat: lat, Lon: lon}, nil
}

// --- Nominatim / OpenStreetMap (fallback) ---

type NominatimGeocoder struct {
	BaseURL string
	Client  *http.Client
}

func NewNominatimGeocoder() *NominatimGeocoder {
	return &NominatimGeocoder{
		BaseURL: "https://nominatim.openstreetmap.org/search",
		Client:  &http.Client{Timeout: clientTimeout},
	}
}

func (g *NominatimGeocoder) Geocode(ctx context.Context, address string) (Point, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Point{}, err
	}
	req.Header.Set("User-Agent", "go-fieldpay/1.0")

	resp, err := g.Client.Do(req)
	if err != nil {
		return Point{}, fmt.Errorf("nominatim: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Point{}, fmt.Errorf("nominatim: HTTP %d", resp.StatusCode)
	}

	var payload []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Point{}, fmt.Errorf("nominatim: %w", err)
	}
	if len(payload) == 0 {
		return Point{}, ErrNotFound
	}
	lat, err1 := strconv.ParseFloat(payload[0].Lat, 64)
	lon, err2 := strconv.ParseFloat(payload[0].Lon, 64)
	if err1 != nil || err2 != nil {
		return Point{}, ErrNotFound
	}
	return Point{Lat: lat, Lon: lon}, nil
}

// --- OSRM routing ---

type OSRMRouter struct {
	BaseURL string
	Client  *http.Client
}

func NewOSRMRouter() *OSRMRouter {
	return &OSRMRouter{
		BaseURL: "http://router.project-osrm.org",
		Client:  &http.Client{Timeout: clientTimeout},
	}
}

func (r *OSRMRouter) Route(ctx context.Context, from, to Point) (float64, error) {
	u := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		r.BaseURL, from.Lon, from.Lat, to.Lon, to.Lat)

	var payload struct {
		Code   string `json:"code"`
		Routes []struct {
			Distance float64 `json:"distance"`
		} `json:"routes"`
	}
	if err := getJSON(ctx, r.Client, u, &payload); err != nil {
		return 0, fmt.Errorf("osrm: %w", err)
	}
	if payload.Code != "Ok" || len(payload.Routes) == 0 {
		return 0, fmt.Errorf("osrm: code %q", payload.Code)
	}
	return payload.Routes[0].Distance / 1000, nil
}

func getJSON(ctx context.Context, client *http.Client, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
