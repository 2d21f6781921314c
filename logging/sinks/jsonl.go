package sinks

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"stellar-salvage/server/logging"
)

// JSONLSink writes one zstd-compressed JSON line per event, rotating the
// output file hourly.
type JSONLSink struct {
	dir    string
	prefix string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLSink(cfg logging.JSONLConfig) *JSONLSink {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "events"
	}
	return &JSONLSink{dir: cfg.Dir, prefix: prefix}
}

func (s *JSONLSink) Write(event logging.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hour := time.Now().UTC().Format("2006-01-02-15")
	if hour != s.curHour {
		if err := s.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := s.w.Write(b); err != nil {
		return err
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return err
	}
	return s.w.Flush()
}

func (s *JSONLSink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *JSONLSink) rotateLocked(hour string) error {
	if err := s.closeLocked(); err != nil {
		return err
	}
	path := filepath.Join(s.dir, fmt.Sprintf("%s-%s.jsonl.zst", s.prefix, hour))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	s.f = f
	s.enc = enc
	s.w = bufio.NewWriterSize(enc, 64*1024)
	s.curHour = hour
	return nil
}

func (s *JSONLSink) closeLocked() error {
	var firstErr error
	if s.w != nil {
		_ = s.w.Flush()
	}
	if s.enc != nil {
		firstErr = s.enc.Close()
		s.enc = nil
	}
	if s.f != nil {
		_ = s.f.Close()
		s.f = nil
	}
	s.w = nil
	return firstErr
}
