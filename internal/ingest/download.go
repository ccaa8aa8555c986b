// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/toorkk/domogled/internal/apperrors"
	"github.com/toorkk/domogled/internal/config"
	"github.com/toorkk/domogled/internal/models"
)

// MetadataResponse is the register's metadata endpoint response; only
// URL is consumed, the rest is accepted and ignored.
type MetadataResponse struct {
	URL string `json:"url"`
}

func metadataURLFor(cfg *config.IngestionConfig, dataset models.Dataset, year int) string {
	base := cfg.KPPMetadataURL
	if dataset == models.NP {
		base = cfg.NPMetadataURL
	}
	return fmt.Sprintf("%s?filterParam=DRZAVA&filterValue=1&filterYear=%d", base, year)
}

// fetchMetadata requests the register's metadata endpoint and extracts
// the export URL, guarded by the dataset's circuit breaker and the
// shared rate limiter (spec.md §4.1 step 1).
func (r *Runner) fetchMetadata(ctx context.Context, dataset models.Dataset, metadataURL string) (*MetadataResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("ingest: rate limiter: %w", err)
	}

	cb := r.breakerFor(dataset)
	return cb.Execute(func() (*MetadataResponse, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, metadataURL, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: build metadata request: %v", apperrors.RemoteFormatError, err)
		}
		resp, err := r.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: metadata request: %v", apperrors.RemoteFormatError, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: metadata status %d", apperrors.RemoteFormatError, resp.StatusCode)
		}

		var meta MetadataResponse
		if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
			return nil, fmt.Errorf("%w: decode metadata: %v", apperrors.RemoteFormatError, err)
		}
		if meta.URL == "" {
			return nil, fmt.Errorf("%w: metadata response missing url field", apperrors.RemoteFormatError)
		}
		if _, err := url.ParseRequestURI(meta.URL); err != nil {
			return nil, fmt.Errorf("%w: metadata url %q unparseable", apperrors.RemoteFormatError, meta.URL)
		}
		return &meta, nil
	})
}

// downloadArchive streams exportURL into a temp file under dir and
// verifies it is a well-formed zip archive.
func (r *Runner) downloadArchive(ctx context.Context, exportURL, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build archive request: %v", apperrors.RemoteFormatError, err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: archive request: %v", apperrors.RemoteFormatError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: archive status %d", apperrors.RemoteFormatError, resp.StatusCode)
	}

	archivePath := dir + "/export.zip"
	out, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("ingest: create temp archive: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", fmt.Errorf("%w: write archive: %v", apperrors.BadArchiveError, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("ingest: close temp archive: %w", err)
	}

	if _, err := zip.OpenReader(archivePath); err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.BadArchiveError, err)
	}

	return archivePath, nil
}
