package media

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const rangeUnitPrefix = "bytes="

// ErrUnsatisfiableRange reports a malformed, multi-range or out-of-bounds Range header.
var ErrUnsatisfiableRange = errors.New("range not satisfiable")

// ServingWindow is the end-inclusive byte span sent for one request.
type ServingWindow struct {
	Start   int64
	End     int64
	Total   int64
	Partial bool
}

// Length returns the number of bytes in the window.
func (w ServingWindow) Length() int64 {
	if w.Total == 0 {
		return 0
	}
	return w.End - w.Start + 1
}

// ContentRange renders the Content-Range value of a partial response.
func (w ServingWindow) ContentRange() string {
	return fmt.Sprintf("bytes %d-%d/%d", w.Start, w.End, w.Total)
}

// UnsatisfiedRange renders the Content-Range value sent with a 416.
func UnsatisfiedRange(total int64) string {
	return fmt.Sprintf("bytes */%d", total)
}

// ResolveWindow computes the serving window for a raw Range header value
// against the current file size. An empty header selects the whole file.
func ResolveWindow(rangeHeader string, total int64) (ServingWindow, error) {
	full := ServingWindow{Start: 0, End: total - 1, Total: total}
	if total <= 0 {
		full.End = 0
	}

	value := strings.TrimSpace(rangeHeader)
	if value == "" {
		return full, nil
	}
	if !strings.HasPrefix(strings.ToLower(value), rangeUnitPrefix) {
		return ServingWindow{}, ErrUnsatisfiableRange
	}
	spec := strings.TrimSpace(value[len(rangeUnitPrefix):])
	if strings.Contains(spec, ",") {
		return ServingWindow{}, ErrUnsatisfiableRange
	}

	first, last, found := strings.Cut(spec, "-")
	if !found {
		return ServingWindow{}, ErrUnsatisfiableRange
	}
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)

	var start, end int64
	if first == "" {
		suffix, err := strconv.ParseInt(last, 10, 64)
		if err != nil || suffix <= 0 {
			return ServingWindow{}, ErrUnsatisfiableRange
		}
		start = total - suffix
		if start < 0 {
			start = 0
		}
		end = total - 1
	} else {
		parsed, err := strconv.ParseInt(first, 10, 64)
		if err != nil {
			return ServingWindow{}, ErrUnsatisfiableRange
		}
		start = parsed
		end = total - 1
		if last != "" {
			if parsedEnd, err := strconv.ParseInt(last, 10, 64); err == nil {
				end = parsedEnd
			}
		}
	}

	if end > total-1 {
		end = total - 1
	}
	if start < 0 || start >= total || start > end {
		return ServingWindow{}, ErrUnsatisfiableRange
	}

	return ServingWindow{Start: start, End: end, Total: total, Partial: true}, nil
}
