// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/toorkk/domogled/internal/apperrors"
)

// extractedFiles holds the three CSV paths located inside an archive.
type extractedFiles struct {
	sifranti     string
	posel        string
	delStavbe    string
}

// fileRoleMatchers maps a case-insensitive filename substring to the role
// it fills (spec.md §4.1 step 2).
var fileRoleMatchers = []struct {
	substr string
	assign func(*extractedFiles, string)
}{
	{"sifranti", func(f *extractedFiles, path string) { f.sifranti = path }},
	{"posli", func(f *extractedFiles, path string) { f.posel = path }},
	{"delistavb", func(f *extractedFiles, path string) { f.delStavbe = path }},
}

// extractArchive unzips archivePath into dir and locates the three
// expected CSVs by case-insensitive filename substring match.
func extractArchive(archivePath, dir string) (extractedFiles, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return extractedFiles{}, fmt.Errorf("%w: %v", apperrors.BadArchiveError, err)
	}
	defer reader.Close()

	var found extractedFiles
	for _, zf := range reader.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		destPath := filepath.Join(dir, filepath.Base(zf.Name))
		if err := extractOne(zf, destPath); err != nil {
			return extractedFiles{}, fmt.Errorf("ingest: extract %s: %w", zf.Name, err)
		}

		lower := strings.ToLower(zf.Name)
		for _, m := range fileRoleMatchers {
			if strings.Contains(lower, m.substr) {
				m.assign(&found, destPath)
			}
		}
	}

	var missing []string
	if found.sifranti == "" {
		missing = append(missing, "sifranti")
	}
	if found.posel == "" {
		missing = append(missing, "posli")
	}
	if found.delStavbe == "" {
		missing = append(missing, "delistavb")
	}
	if len(missing) > 0 {
		return extractedFiles{}, fmt.Errorf("%w: missing %s", apperrors.MissingFileError, strings.Join(missing, ", "))
	}

	return found, nil
}

func extractOne(zf *zip.File, destPath string) error {
	src, err := zf.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}
