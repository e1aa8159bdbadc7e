// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"

	"github.com/desertthunder/audiotag/internal/providers"
)

// StubFingerprinter is a test double for [providers.Fingerprinter].
type StubFingerprinter struct {
	Calls int
	FP    *providers.Fingerprint
	Err   error
}

func (s *StubFingerprinter) Fingerprint(ctx context.Context, path string) (*providers.Fingerprint, error) {
	s.Calls++
	return s.FP, s.Err
}

// StubIdentifier is a test double for [providers.Identifier].
type StubIdentifier struct {
	Calls int
	ID    *providers.Identification
	Err   error
}

func (s *StubIdentifier) Identify(ctx context.Context, fp *providers.Fingerprint) (*providers.Identification, error) {
	s.Calls++
	return s.ID, s.Err
}

// StubMetadataSource is a test double for [providers.MetadataSource].
type StubMetadataSource struct {
	Calls      int
	Rec        *providers.Recording
	SearchHits []providers.Recording
	Err        error
}

func (s *StubMetadataSource) Recording(ctx context.Context, recordingID string) (*providers.Recording, error) {
	s.Calls++
	return s.Rec, s.Err
}

func (s *StubMetadataSource) SearchRecording(ctx context.Context, title, artist string) ([]providers.Recording, error) {
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.SearchHits) == 0 {
		return nil, errors.New("no search hits configured")
	}
	return s.SearchHits, nil
}

// StubCoverSource is a test double for [providers.CoverSource].
type StubCoverSource struct {
	Calls int
	Data  []byte
	Err   error
}

func (s *StubCoverSource) FrontCover(ctx context.Context, releaseID string) ([]byte, error) {
	s.Calls++
	return s.Data, s.Err
}

// StubLyricsSource is a test double for [providers.LyricsSource].
type StubLyricsSource struct {
	SourceName string
	Calls      int
	Result     *providers.LyricsResult
	Err        error
}

func (s *StubLyricsSource) Name() string { return s.SourceName }

func (s *StubLyricsSource) Lyrics(ctx context.Context, q providers.LyricsQuery) (*providers.LyricsResult, error) {
	s.Calls++
	return s.Result, s.Err
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

// NewLimitedWriter creates a writer that fails after maxWrites writes.
func NewLimitedWriter(target io.Writer, maxWrites int) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, target: target}
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}
