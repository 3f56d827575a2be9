package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"anthrilo/internal/domain/reports"
	"anthrilo/pkg/logger"
)

// Payload framing: one leading byte tells whether the body is compressed.
const (
	frameRaw  byte = 0
	frameZstd byte = 1
)

// DefaultCompressThreshold is the payload size above which entries are
// zstd-compressed.
const DefaultCompressThreshold = 4 * 1024

var errCorruptEntry = errors.New("corrupt cache entry")

// ReportCache caches rendered report payloads keyed by report name and
// request parameters. Backend failures degrade to misses and are logged.
type ReportCache struct {
	backend Backend
	prefix  string
	ttl     time.Duration

	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewReportCache creates a cache over backend. Keys are namespaced by prefix.
func NewReportCache(backend Backend, prefix string, ttl time.Duration) (*ReportCache, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &ReportCache{
		backend:           backend,
		prefix:            prefix,
		ttl:               ttl,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: DefaultCompressThreshold,
	}, nil
}

// Key returns the backend key for a report request.
func (c *ReportCache) Key(name string, p reports.Params) string {
	return c.prefix + name + "?" + p.Key()
}

// Get returns the cached payload for a report request.
func (c *ReportCache) Get(ctx context.Context, name string, p reports.Params) ([]byte, bool) {
	key := c.Key(name, p)
	raw, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		logger.Warn(ctx, "report cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	payload, err := c.decode(raw)
	if err != nil {
		logger.Warn(ctx, "report cache entry unreadable", "key", key, "error", err)
		return nil, false
	}
	return payload, true
}

// Set stores the payload of a report request.
func (c *ReportCache) Set(ctx context.Context, name string, p reports.Params, payload []byte) {
	key := c.Key(name, p)
	if err := c.backend.Set(ctx, key, c.encode(payload), c.ttl); err != nil {
		logger.Warn(ctx, "report cache write failed", "key", key, "error", err)
	}
}

// Purge drops every cached report.
func (c *ReportCache) Purge(ctx context.Context) (int, error) {
	n, err := c.backend.DeletePrefix(ctx, c.prefix)
	if err != nil {
		return 0, fmt.Errorf("purge report cache: %w", err)
	}
	return n, nil
}

// Close releases the codec and the backend.
func (c *ReportCache) Close() error {
	c.decoder.Close()
	if err := c.encoder.Close(); err != nil {
		return err
	}
	return c.backend.Close()
}

func (c *ReportCache) encode(payload []byte) []byte {
	if len(payload) > c.compressThreshold {
		out := make([]byte, 1, len(payload)/4+1)
		out[0] = frameZstd
		return c.encoder.EncodeAll(payload, out)
	}
	out := make([]byte, 0, len(payload)+1)
	out = append(out, frameRaw)
	return append(out, payload...)
}

func (c *ReportCache) decode(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, errCorruptEntry
	}
	switch raw[0] {
	case frameRaw:
		return raw[1:], nil
	case frameZstd:
		payload, err := c.decoder.DecodeAll(raw[1:], nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errCorruptEntry, err)
		}
		return payload, nil
	default:
		return nil, fmt.Errorf("%w: frame %d", errCorruptEntry, raw[0])
	}
}
