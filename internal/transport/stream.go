package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

const chunkSize = 32 * 1024

// Stream is an open download. It is not safe for concurrent use.
type Stream struct {
	ctx      context.Context //nolint:containedctx // The watchdog context lives as long as the body.
	body     io.ReadCloser
	dog      *watchdog
	buf      []byte
	err      error
	progress uint64
	total    uint64
}

// Chunk returns the next piece of the body, or io.EOF at its end.
// The returned slice is only valid until the next call.
func (s *Stream) Chunk() ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}

	s.dog.arm()
	n, err := s.body.Read(s.buf)
	s.dog.disarm()

	if err != nil {
		if errors.Is(err, io.EOF) {
			s.err = io.EOF
		} else {
			s.err = classify(s.ctx, fmt.Errorf("read body: %w", err))
		}
	}

	if n > 0 {
		s.progress += uint64(n)

		return s.buf[:n], nil
	}

	return nil, s.err
}

// Progress is the number of bytes received, including the resume offset.
func (s *Stream) Progress() uint64 {
	return s.progress
}

// Total is the full size of the resource, or 0 when the server did not say.
func (s *Stream) Total() uint64 {
	return s.total
}

// Close releases the connection.
func (s *Stream) Close() error {
	defer s.dog.stop()

	return s.body.Close()
}

// streamTotal validates a (partial) response and computes the full size.
func streamTotal(resp *http.Response, offset uint64) (uint64, error) {
	if offset == 0 {
		if resp.ContentLength > 0 {
			return uint64(resp.ContentLength), nil
		}

		return 0, nil
	}

	if resp.StatusCode != http.StatusPartialContent {
		return 0, fmt.Errorf("status %d for offset %d: %w", resp.StatusCode, offset, ErrRangeNotSupported)
	}

	start, size, err := parseContentRange(resp.Header.Get("Content-Range"))
	if err != nil || start != offset {
		return 0, fmt.Errorf("content-range %q for offset %d: %w",
			resp.Header.Get("Content-Range"), offset, ErrRangeNotSupported)
	}

	if resp.ContentLength > 0 {
		return offset + uint64(resp.ContentLength), nil
	}

	return size, nil
}

// parseContentRange parses "bytes <start>-<end>/<size>". An unknown size ("*") is 0.
func parseContentRange(value string) (start, size uint64, err error) {
	spec, ok := strings.CutPrefix(strings.TrimSpace(value), "bytes ")
	if !ok {
		return 0, 0, errors.New("not a byte range")
	}

	span, sizeText, ok := strings.Cut(spec, "/")
	if !ok {
		return 0, 0, errors.New("missing size")
	}

	startText, _, ok := strings.Cut(span, "-")
	if !ok {
		return 0, 0, errors.New("missing range end")
	}

	start, err = strconv.ParseUint(startText, 10, 64)
	if err != nil {
		return 0, 0, err
	}

	if sizeText != "*" {
		size, err = strconv.ParseUint(sizeText, 10, 64)
		if err != nil {
			return 0, 0, err
		}
	}

	return start, size, nil
}
