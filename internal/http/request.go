package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"meinbudget/internal/core"
)

const maxBodyBytes = 64 << 10

var (
	minDate = core.NewDate(1, 1, 1)
	maxDate = core.NewDate(9999, 12, 31)
)

// decodeJSON reads a single JSON object into v. Unknown fields, trailing data
// and oversized bodies are validation failures.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty request body", core.ErrValidation)
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: request body exceeds %d bytes", core.ErrValidation, maxErr.Limit)
		}
		if errors.Is(err, core.ErrValidation) {
			return err
		}
		return fmt.Errorf("%w: malformed request body: %v", core.ErrValidation, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after request body", core.ErrValidation)
	}
	return nil
}

// dateRange reads the optional from/to query parameters. ok is false when
// neither is present; a missing bound is open.
func dateRange(q url.Values) (from, to core.Date, ok bool, err error) {
	rawFrom := strings.TrimSpace(q.Get("from"))
	rawTo := strings.TrimSpace(q.Get("to"))
	if rawFrom == "" && rawTo == "" {
		return core.Date{}, core.Date{}, false, nil
	}

	from, to = minDate, maxDate
	if rawFrom != "" {
		if from, err = core.ParseDate(rawFrom); err != nil {
			return core.Date{}, core.Date{}, false, fmt.Errorf("from: %w", err)
		}
	}
	if rawTo != "" {
		if to, err = core.ParseDate(rawTo); err != nil {
			return core.Date{}, core.Date{}, false, fmt.Errorf("to: %w", err)
		}
	}
	if to.Before(from.Time) {
		return core.Date{}, core.Date{}, false, fmt.Errorf("%w: from %s is after to %s", core.ErrValidation, from, to)
	}
	return from, to, true, nil
}

// limitParam reads an optional positive "limit". Zero means no limit.
func limitParam(q url.Values) (int, error) {
	raw := strings.TrimSpace(q.Get("limit"))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", core.ErrValidation)
	}
	return n, nil
}

// asOfParam reads the optional "asOf" day used for credit progress.
func asOfParam(q url.Values, today core.Date) (core.Date, error) {
	raw := strings.TrimSpace(q.Get("asOf"))
	if raw == "" {
		return today, nil
	}
	return core.ParseDate(raw)
}
