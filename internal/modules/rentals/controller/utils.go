package controller

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bikeshare-dashboard/internal/modules/rentals/service"
	"bikeshare-dashboard/internal/modules/rentals/types"
)

const (
	rowsPageSize = 20
	minCode      = 1
	maxCode      = 4
)

func parseVariant(r *http.Request) (service.Variant, error) {
	switch v := service.Variant(r.URL.Query().Get("variant")); v {
	case "", service.VariantRange:
		return service.VariantRange, nil
	case service.VariantSingle:
		return v, nil
	default:
		return "", fmt.Errorf("invalid 'variant' %q (allowed: range, single)", v)
	}
}

func parseRangeQuery(r *http.Request) (service.RangeQuery, error) {
	q := r.URL.Query()
	var out service.RangeQuery
	var err error

	if out.Start, err = parseDate(q, "start"); err != nil {
		return service.RangeQuery{}, err
	}
	if out.End, err = parseDate(q, "end"); err != nil {
		return service.RangeQuery{}, err
	}
	if out.Seasons, err = parseCodes(q, "season"); err != nil {
		return service.RangeQuery{}, err
	}
	if out.Weathers, err = parseCodes(q, "weather"); err != nil {
		return service.RangeQuery{}, err
	}
	out.Filtered = q.Get("filtered") == "1"
	return out, nil
}

func parseSingleQuery(r *http.Request) (service.SingleQuery, error) {
	q := r.URL.Query()
	season, err := parseCode(q, "season")
	if err != nil {
		return service.SingleQuery{}, err
	}
	weather, err := parseCode(q, "weather")
	if err != nil {
		return service.SingleQuery{}, err
	}
	return service.SingleQuery{Season: season, Weather: weather}, nil
}

func parseDate(q url.Values, name string) (*time.Time, error) {
	s := strings.TrimSpace(q.Get(name))
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(types.DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid '%s' (expected YYYY-MM-DD)", name)
	}
	return &t, nil
}

// parseCodes reads a repeated code parameter. Empty values are skipped so that
// an unselected form field does not fail the request.
func parseCodes(q url.Values, name string) ([]int, error) {
	var out []int
	for _, s := range q[name] {
		if strings.TrimSpace(s) == "" {
			continue
		}
		n, err := toCode(s, name)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func parseCode(q url.Values, name string) (*int, error) {
	s := strings.TrimSpace(q.Get(name))
	if s == "" {
		return nil, nil
	}
	n, err := toCode(s, name)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func toCode(s, name string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid '%s' (expected integer)", name)
	}
	if n < minCode || n > maxCode {
		return 0, errors.New("'" + name + "' must be between 1 and 4")
	}
	return n, nil
}

// parsePage returns the 1-based page number from the request (default 1, min 1).
func parsePage(r *http.Request) int {
	s := r.URL.Query().Get("page")
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// withoutPage copies the request query minus the page parameter, for links
// that keep the current filter.
func withoutPage(q url.Values) url.Values {
	out := url.Values{}
	for k, v := range q {
		if k == "page" {
			continue
		}
		out[k] = v
	}
	return out
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
