package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dustin/go-humanize"

	"github.com/kpcyrd/spotify-launcher/internal/checksum"
	"github.com/kpcyrd/spotify-launcher/internal/logger"
	"github.com/kpcyrd/spotify-launcher/internal/transport"
)

var (
	// ErrChecksumMismatch is returned when the completed body does not hash to the declared digest.
	ErrChecksumMismatch = errors.New("downloaded bytes don't match signed sha256sum")
	// ErrAttemptsExceeded is returned when the download kept failing.
	ErrAttemptsExceeded = errors.New("download attempts exceeded")
	// ErrSizeExceeded is returned when the server sends more than the signed size.
	ErrSizeExceeded = errors.New("download is larger than the signed size")
)

// Streamer opens a body at a byte offset.
type Streamer interface {
	FetchStream(ctx context.Context, url string, offset uint64) (*transport.Stream, error)
}

// Reporter receives the download percentage.
type Reporter interface {
	Update(percent int) error
}

// Options tune a download.
type Options struct {
	// MaxAttempts bounds how many times a stream is opened. 0 means unlimited.
	MaxAttempts int
	// Backoff paces the attempts. Nil uses an exponential backoff.
	Backoff backoff.BackOff
	// Reporter, if set, is told about progress.
	Reporter Reporter
	// Size is the signed body size. When set, it bounds both the buffer and
	// the bytes accepted from the server. 0 means unknown.
	Size uint64
}

// Session accumulates one body across interrupted streams.
type Session struct {
	buf    []byte
	hasher *checksum.Hasher
	// Received is the number of bytes kept so far. It is the resume offset.
	Received uint64
	// Total is the full size, 0 until a server announced it.
	Total uint64

	reported int
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{
		hasher:   checksum.NewSHA256(),
		reported: -1,
	}
}

// Download fetches url and returns the body once it hashes to declared.
func Download(ctx context.Context, streamer Streamer, url, declared string, opts Options) ([]byte, error) {
	return NewSession().Run(ctx, streamer, url, declared, opts)
}

// Percent is Received relative to Total, 0 while the total is unknown.
func (s *Session) Percent() int {
	if s.Total == 0 {
		return 0
	}

	if s.Received >= s.Total {
		return 100
	}

	return int(s.Received * 100 / s.Total)
}

// Run downloads url, resuming after retryable failures. The digest is only
// checked once a stream ran to completion.
func (s *Session) Run(ctx context.Context, streamer Streamer, url, declared string, opts Options) ([]byte, error) {
	policy := opts.Backoff
	if policy == nil {
		policy = defaultBackoff()
	}

	policy = backoff.WithContext(policy, ctx)
	policy.Reset()

	for attempt := 1; ; attempt++ {
		err := s.stream(ctx, streamer, url, opts)
		if err == nil {
			break
		}

		if !transport.IsRetryable(err) {
			return nil, err
		}

		if opts.MaxAttempts > 0 && attempt >= opts.MaxAttempts {
			return nil, fmt.Errorf("%w (%d): %w", ErrAttemptsExceeded, attempt, err)
		}

		delay := policy.NextBackOff()
		if delay == backoff.Stop {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", err, ctx.Err())
			}

			return nil, fmt.Errorf("%w (%d): %w", ErrAttemptsExceeded, attempt, err)
		}

		logger.Warnf(ctx, "Download interrupted after %s of %s: %v, resuming in %s",
			humanize.IBytes(s.Received), humanize.IBytes(s.Total), err, delay)

		if err = sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	logger.Info(ctx, "Verifying with sha256sum hash...")

	digest := s.hasher.Hex()
	if !checksum.Equal(digest, declared) {
		return nil, fmt.Errorf("%w (signed: %q, downloaded: %q, %d bytes)",
			ErrChecksumMismatch, declared, digest, s.Received)
	}

	return s.buf, nil
}

// stream reads one stream from the current offset to its end.
// Content-Length is not authenticated, so only the signed size sizes the buffer.
func (s *Session) stream(ctx context.Context, streamer Streamer, url string, opts Options) error {
	if s.Total > 0 && s.Received >= s.Total {
		return nil
	}

	st, err := streamer.FetchStream(ctx, url, s.Received)
	if err != nil {
		return err
	}

	defer func() {
		if err := st.Close(); err != nil {
			logger.Debugf(ctx, "Closing download stream: %v", err)
		}
	}()

	if total := st.Total(); total > 0 {
		if opts.Size > 0 && total > opts.Size {
			return fmt.Errorf("%w: server announced %d bytes, signed size is %d", ErrSizeExceeded, total, opts.Size)
		}

		s.Total = total
	}

	if s.buf == nil && opts.Size > 0 {
		s.buf = make([]byte, 0, opts.Size)
	}

	for {
		chunk, err := st.Chunk()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}

		if opts.Size > 0 && s.Received+uint64(len(chunk)) > opts.Size {
			return fmt.Errorf("%w: more than %d bytes received", ErrSizeExceeded, opts.Size)
		}

		s.buf = append(s.buf, chunk...)
		_, _ = s.hasher.Write(chunk)
		s.Received += uint64(len(chunk))

		s.report(ctx, opts.Reporter)
	}
}

func (s *Session) report(ctx context.Context, reporter Reporter) {
	percent := s.Percent()
	if percent == s.reported {
		return
	}

	s.reported = percent

	logger.Debugf(ctx, "Download progress: %d%%, %s/%s",
		percent, humanize.IBytes(s.Received), humanize.IBytes(s.Total))

	if reporter == nil {
		return
	}

	if err := reporter.Update(percent); err != nil {
		logger.Warnf(ctx, "Failed to update progress: %v", err)
	}
}

func defaultBackoff() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 10 * time.Second
	// Attempts are counted by Run.
	policy.MaxElapsedTime = 0

	return policy
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
