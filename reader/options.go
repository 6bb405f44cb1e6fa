package reader

import (
	"math"

	"github.com/go-kit/log"
)

// DefaultMaxValues is the default bound on the number of values one call may
// request. String offsets are 32-bit, so larger requests cannot be served.
const DefaultMaxValues = math.MaxInt32

// Options holds the optional parameters of a Reader.
type Options struct {
	// Logger receives a line for each page header that fails to parse.
	Logger log.Logger

	// MaxValues bounds the value or string count of a single read. Requests
	// above it fail with ErrBufferTooSmall before anything is allocated.
	MaxValues int64
}

// EnsureDefaults ensures that the default values for all options are set if a
// valid value was not already specified.
func (o *Options) EnsureDefaults() *Options {
	if o == nil {
		o = &Options{}
	}
	if o.Logger == nil {
		o.Logger = log.NewNopLogger()
	}
	if o.MaxValues <= 0 || o.MaxValues > DefaultMaxValues {
		o.MaxValues = DefaultMaxValues
	}
	return o
}
