package hdf5

import (
	"go.uber.org/zap"

	"github.com/robert-malhotra/h5bind/internal/h5lib"
)

// FileOption configures a File.
type FileOption func(*fileOptions)

type fileOptions struct {
	logger        *zap.Logger
	heapCacheSize int
}

func defaultFileOptions() *fileOptions {
	return &fileOptions{
		logger:        zap.NewNop(),
		heapCacheSize: h5lib.DefaultHeapCacheSize,
	}
}

// WithLogger sets the logger for file lifecycle events.
func WithLogger(l *zap.Logger) FileOption {
	return func(o *fileOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithHeapCacheSize sets how many global heap collections are cached while
// reading variable-length strings.
func WithHeapCacheSize(n int) FileOption {
	return func(o *fileOptions) {
		if n > 0 {
			o.heapCacheSize = n
		}
	}
}

func (o *fileOptions) lib() h5lib.Options {
	return h5lib.Options{Logger: o.logger, HeapCacheSize: o.heapCacheSize}
}
