package http

import (
	"net/http"
	"strconv"
	"time"

	"resbook/pkg/config"
	apperrors "resbook/pkg/errors"
	"resbook/pkg/interval"
)

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64 = 0
	if s := query.Get("offset"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = int64(v)
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}

// ExtractTimeRange reads required "from" and "to" RFC 3339 query parameters
// and returns them as a half-open window.
func ExtractTimeRange(r *http.Request) (interval.Span, error) {
	from, err := requireTime(r, "from")
	if err != nil {
		return interval.Span{}, err
	}
	to, err := requireTime(r, "to")
	if err != nil {
		return interval.Span{}, err
	}
	return interval.New(from, to), nil
}

// ExtractTime reads an optional RFC 3339 query parameter. A missing
// parameter yields the zero time.
func ExtractTime(r *http.Request, name string) (time.Time, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput("invalid " + name + " parameter, expected RFC 3339 timestamp: " + s)
	}
	return t, nil
}

// ExtractInt reads an optional non-negative integer query parameter,
// answering def when the parameter is absent.
func ExtractInt(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, apperrors.InvalidInput("invalid " + name + " parameter, expected a non-negative integer: " + s)
	}
	return v, nil
}

// ExtractDuration reads a required Go duration query parameter such as
// "90m" or "1h30m".
func ExtractDuration(r *http.Request, name string) (time.Duration, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, apperrors.InvalidInput(name + " parameter is required")
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, apperrors.InvalidInput("invalid " + name + " parameter, expected a duration such as 90m: " + s)
	}
	return d, nil
}

func requireTime(r *http.Request, name string) (time.Time, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return time.Time{}, apperrors.InvalidInput(name + " parameter is required")
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput("invalid " + name + " parameter, expected RFC 3339 timestamp: " + s)
	}
	return t, nil
}
