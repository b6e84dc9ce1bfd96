package core

import (
	"go.uber.org/zap"
)

type optionData struct {
	chunkSize int
	log       *zap.Logger
	onChunk   func(n int)
	onCollect func(paths []string) error

	sort   bool
	atomic bool
	lz4    bool
}

// Option tunes Encode and Pack. Options which only make sense for a whole
// pack run (sorting, atomic output, LZ4 framing, collect hook) are ignored by
// Encode.
type Option func(*optionData)

func newOptionData(options []Option) optionData {
	opts := optionData{
		chunkSize: defaultChunkSize,
		log:       zap.NewNop(),
	}
	for _, o := range options {
		o(&opts)
	}
	if opts.chunkSize <= 0 {
		opts.chunkSize = defaultChunkSize
	}
	if opts.log == nil {
		opts.log = zap.NewNop()
	}
	return opts
}

// WithChunkSize sets the buffer size used to stream file content. It does
// not affect the produced bytes. Non-positive values select the default.
func WithChunkSize(n int) Option {
	return func(o *optionData) {
		o.chunkSize = n
	}
}

// WithLogger makes the encoder report every entry at debug level and Pack
// report each phase at info level.
func WithLogger(l *zap.Logger) Option {
	return func(o *optionData) {
		o.log = l
	}
}

// WithProgress registers f to be called with the number of content bytes
// after every chunk written to the archive.
func WithProgress(f func(n int)) Option {
	return func(o *optionData) {
		o.onChunk = f
	}
}

// WithCollectHook registers f to be called by Pack with the final path list
// right before the output is created. A non-nil error aborts the run.
func WithCollectHook(f func(paths []string) error) Option {
	return func(o *optionData) {
		o.onCollect = f
	}
}

// WithSort makes Pack order collected paths bytewise before encoding.
func WithSort(v bool) Option {
	return func(o *optionData) {
		o.sort = v
	}
}

// WithAtomic makes Pack write into a temporary file next to the output and
// rename it into place only after the archive is complete.
func WithAtomic(v bool) Option {
	return func(o *optionData) {
		o.atomic = v
	}
}

// WithLZ4 makes Pack wrap the whole archive stream into an LZ4 frame. The
// PKIT bytes inside the frame are the same as without it.
func WithLZ4(v bool) Option {
	return func(o *optionData) {
		o.lz4 = v
	}
}
