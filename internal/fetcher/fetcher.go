package fetcher

import (
	"context"
	"io"
	"net/url"
	"strings"
)

// Fetcher defines the interface for downloading remote archives.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// SchemeFetcher dispatches each download to the HTTP or FTP fetcher based on
// the URL scheme. Gazetteer mirrors publish over both.
type SchemeFetcher struct {
	HTTP Fetcher
	FTP  Fetcher
}

func (s *SchemeFetcher) pick(rawURL string) Fetcher {
	if u, err := url.Parse(rawURL); err == nil && strings.EqualFold(u.Scheme, "ftp") {
		return s.FTP
	}
	return s.HTTP
}

// Download fetches the URL via the scheme-matched fetcher.
func (s *SchemeFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	return s.pick(rawURL).Download(ctx, rawURL)
}

// DownloadToFile fetches the URL to a local file via the scheme-matched fetcher.
func (s *SchemeFetcher) DownloadToFile(ctx context.Context, rawURL string, path string) (int64, error) {
	return s.pick(rawURL).DownloadToFile(ctx, rawURL, path)
}
