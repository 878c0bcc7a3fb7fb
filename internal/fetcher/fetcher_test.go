package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemeFetcher_DispatchHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("http payload")) //nolint:errcheck
	}))
	defer srv.Close()

	sf := &SchemeFetcher{
		HTTP: NewHTTPFetcher(HTTPOptions{}),
		FTP:  NewFTPFetcher(FTPOptions{}),
	}

	body, err := sf.Download(context.Background(), srv.URL+"/file.zip")
	require.NoError(t, err)
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "http payload", string(data))
}

func TestSchemeFetcher_DispatchFTP(t *testing.T) {
	ftpSrv := newMiniFTPServer(t, map[string]string{
		"/pub/Gazetteer_WY_GPKG.zip": "ftp payload",
	})
	defer ftpSrv.close()

	sf := &SchemeFetcher{
		HTTP: NewHTTPFetcher(HTTPOptions{}),
		FTP:  NewFTPFetcher(FTPOptions{}),
	}

	body, err := sf.Download(context.Background(), "ftp://"+ftpSrv.addr()+"/pub/Gazetteer_WY_GPKG.zip")
	require.NoError(t, err)
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "ftp payload", string(data))
}

func TestSchemeFetcher_DownloadToFileDispatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("saved over http")) //nolint:errcheck
	}))
	defer srv.Close()

	sf := &SchemeFetcher{
		HTTP: NewHTTPFetcher(HTTPOptions{}),
		FTP:  NewFTPFetcher(FTPOptions{}),
	}

	dest := filepath.Join(t.TempDir(), "archive.zip")
	n, err := sf.DownloadToFile(context.Background(), srv.URL+"/archive.zip", dest)
	require.NoError(t, err)
	assert.Equal(t, int64(15), n)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "saved over http", string(data))
}

func TestSchemeFetcher_Pick(t *testing.T) {
	httpF := NewHTTPFetcher(HTTPOptions{})
	ftpF := NewFTPFetcher(FTPOptions{})
	sf := &SchemeFetcher{HTTP: httpF, FTP: ftpF}

	tests := []struct {
		name string
		url  string
		want Fetcher
	}{
		{"http", "http://prd-tnm.s3.amazonaws.com/StagedProducts/file.zip", httpF},
		{"https", "https://prd-tnm.s3.amazonaws.com/StagedProducts/file.zip", httpF},
		{"ftp", "ftp://ftp.example.gov/pub/file.zip", ftpF},
		{"ftp uppercase", "FTP://ftp.example.gov/pub/file.zip", ftpF},
		{"unparseable falls back to http", "://bad", httpF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Same(t, tt.want, sf.pick(tt.url))
		})
	}
}
