package upload

import (
	"errors"
	"fmt"
	"math"

	"github.com/docker/go-units"

	"github.com/sh-sharifi-190/wetransfer/internal/settings"
)

// MaxShareSizeKey is the configuration key holding the share size limit.
const MaxShareSizeKey = "share.maxSize"

// DefaultMaxShareSize applies when the configured limit is missing or unusable.
const DefaultMaxShareSize int64 = 1_000_000_000

// ErrShareTooLarge is returned when the files of a share exceed the limit.
var ErrShareTooLarge = errors.New("share exceeds the maximum size")

// TooLargeError reports the sizes involved in a rejected share.
type TooLargeError struct {
	Total int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("%s: %s is over the %s limit", ErrShareTooLarge, HumanSize(e.Total), HumanSize(e.Limit))
}

func (e *TooLargeError) Unwrap() error {
	return ErrShareTooLarge
}

// Gate checks share sizes against the resolved share.maxSize value.
type Gate struct {
	MaxShareSize settings.Value
}

// Limit returns the configured limit, or DefaultMaxShareSize when the value is
// absent, NaN or not positive.
func (g Gate) Limit() int64 {
	if n, ok := g.MaxShareSize.Int(); ok && n > 0 {
		return n
	}
	return DefaultMaxShareSize
}

// Check returns the total size of files, or a *TooLargeError when it exceeds the limit.
func (g Gate) Check(sizes []int64) (int64, error) {
	limit := g.Limit()

	var total int64
	for _, size := range sizes {
		if size < 0 {
			return 0, fmt.Errorf("file size must not be negative, got %d", size)
		}
		if total > math.MaxInt64-size {
			return 0, &TooLargeError{Total: math.MaxInt64, Limit: limit}
		}
		total += size
	}

	if total > limit {
		return total, &TooLargeError{Total: total, Limit: limit}
	}
	return total, nil
}

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// HumanSize formats bytes with a 1024 base and one decimal, e.g. "1.5 GB".
func HumanSize(bytes int64) string {
	if bytes <= 0 {
		return "0.0 B"
	}

	return units.CustomSize("%.1f %s", float64(bytes), 1024, sizeUnits)
}
