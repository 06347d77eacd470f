package geourl

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/susu3304/geoquiz/internal/geo"
)

var ErrNoCoordinates = errors.New("coordinates not found")

const num = `(-?\d+(?:\.\d+)?)`

var (
	reAt     = regexp.MustCompile(`@` + num + `,` + num)
	re3d4d   = regexp.MustCompile(`!3d` + num + `!4d` + num)
	reSearch = regexp.MustCompile(`/search/` + num + `,(?:\+|\s|%20)*` + num)
	rePair   = regexp.MustCompile(`^\s*` + num + `\s*[,;\s]\s*` + num + `\s*$`)
)

// Parse reads a coordinate from either a bare "lat,lng" pair or a Google Maps
// URL that already carries the position. Short links need Expand.
func Parse(input string) (geo.Coordinate, error) {
	s := strings.TrimSpace(input)
	if m := rePair.FindStringSubmatch(s); len(m) == 3 {
		return parse2(m[1], m[2])
	}
	c, ok := extractFromURL(s)
	if !ok {
		return geo.Coordinate{}, fmt.Errorf("%w in %q", ErrNoCoordinates, input)
	}
	return c, nil
}

// Client expands Google Maps short URLs before parsing.
type Client struct {
	http *http.Client
}

func NewClient() *Client {
	return &Client{
		http: &http.Client{
			Timeout: 15 * time.Second,
			// Follow redirects (default is fine); keep a safety cap.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return errors.New("too many redirects")
				}
				return nil
			},
		},
	}
}

// Expand resolves input to a coordinate. Inputs Parse understands are answered
// without touching the network; anything else that looks like a URL is
// fetched and its final URL after redirects is parsed.
func (c *Client) Expand(ctx context.Context, input string) (geo.Coordinate, string, error) {
	coord, err := Parse(input)
	if err == nil {
		return coord, input, nil
	}
	if !errors.Is(err, ErrNoCoordinates) {
		return geo.Coordinate{}, "", err
	}
	u, err := url.Parse(strings.TrimSpace(input))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return geo.Coordinate{}, "", fmt.Errorf("%w in %q", ErrNoCoordinates, input)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return geo.Coordinate{}, "", err
	}
	// Some endpoints behave better with a UA.
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; geoquiz/1.0)")
	req.Header.Set("Accept-Language", "fr,en;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return geo.Coordinate{}, "", err
	}
	defer resp.Body.Close()

	if resp.Request == nil || resp.Request.URL == nil {
		return geo.Coordinate{}, "", errors.New("failed to determine final URL")
	}
	finalURL := resp.Request.URL.String()

	coord, ok := extractFromURL(finalURL)
	if !ok {
		return geo.Coordinate{}, finalURL, fmt.Errorf("%w in final URL %s", ErrNoCoordinates, finalURL)
	}
	return coord, finalURL, nil
}

func extractFromURL(s string) (geo.Coordinate, bool) {
	// .../@lat,lng,zoom..., ...!3dlat!4dlng..., .../maps/search/lat,+lng
	// A match outside the valid range falls through to the next form.
	for _, re := range []*regexp.Regexp{reAt, re3d4d, reSearch} {
		if m := re.FindStringSubmatch(s); len(m) == 3 {
			if c, ok := parseOK(m[1], m[2]); ok {
				return c, true
			}
		}
	}

	// ?q=lat,lng or ?query=lat,lng
	u, err := url.Parse(s)
	if err == nil {
		for _, key := range []string{"q", "query"} {
			if v := u.Query().Get(key); v != "" {
				if mm := rePair.FindStringSubmatch(v); len(mm) == 3 {
					if c, ok := parseOK(mm[1], mm[2]); ok {
						return c, true
					}
				}
			}
		}
	}

	return geo.Coordinate{}, false
}

func parseOK(a, b string) (geo.Coordinate, bool) {
	c, err := parse2(a, b)
	return c, err == nil
}

func parse2(a, b string) (geo.Coordinate, error) {
	la, err := strconv.ParseFloat(a, 64)
	if err != nil {
		return geo.Coordinate{}, err
	}
	lo, err := strconv.ParseFloat(b, 64)
	if err != nil {
		return geo.Coordinate{}, err
	}
	c := geo.Coordinate{Lat: la, Lng: lo}
	return c, c.Validate()
}

// MapsURL links to c on Google Maps. Parse reads it back.
func MapsURL(c geo.Coordinate) string {
	return fmt.Sprintf("https://www.google.com/maps/@%.6f,%.6f,10z", c.Lat, c.Lng)
}
