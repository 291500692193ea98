package reporter

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// EvidencePackage represents the metadata for an analysis evidence package.
type EvidencePackage struct {
	Version     string        `json:"version"`
	SourceFile  string        `json:"source_file"`
	CreatedAt   time.Time     `json:"created_at"`
	ToolVersion string        `json:"tool_version"`
	Files       []PackageFile `json:"files"`
}

// PackageFile records a file included in the evidence package.
type PackageFile struct {
	Name   string `json:"name"`
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
}

// ExportPackage creates a ZIP archive of a run directory for handoff.
// The archive holds every file of the directory plus package_info.json
// with their hashes. Returns the path to the created ZIP file.
func ExportPackage(outputDir, sourceFile, toolVersion string) (string, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return "", fmt.Errorf("read output dir: %w", err)
	}

	zipPath := filepath.Clean(outputDir) + ".zip"
	zipFile, err := os.Create(zipPath)
	if err != nil {
		return "", fmt.Errorf("create zip: %w", err)
	}
	defer zipFile.Close()

	w := zip.NewWriter(zipFile)
	defer w.Close()

	var files []PackageFile
	dirBase := filepath.Base(outputDir)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outputDir, entry.Name()))
		if err != nil {
			return "", fmt.Errorf("read %s: %w", entry.Name(), err)
		}

		zf, err := w.Create(dirBase + "/" + entry.Name())
		if err != nil {
			return "", fmt.Errorf("zip create %s: %w", entry.Name(), err)
		}
		if _, err := zf.Write(content); err != nil {
			return "", fmt.Errorf("zip write %s: %w", entry.Name(), err)
		}

		h := sha256.Sum256(content)
		files = append(files, PackageFile{
			Name:   entry.Name(),
			SHA256: hex.EncodeToString(h[:]),
			Size:   int64(len(content)),
		})
	}

	pkg := EvidencePackage{
		Version:     "1.0",
		SourceFile:  sourceFile,
		CreatedAt:   time.Now().UTC(),
		ToolVersion: toolVersion,
		Files:       files,
	}
	pkgJSON, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal package info: %w", err)
	}

	zf, err := w.Create(dirBase + "/package_info.json")
	if err != nil {
		return "", fmt.Errorf("zip create package_info: %w", err)
	}
	if _, err := zf.Write(pkgJSON); err != nil {
		return "", fmt.Errorf("zip write package_info: %w", err)
	}

	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close zip writer: %w", err)
	}
	if err := zipFile.Close(); err != nil {
		return "", fmt.Errorf("close zip file: %w", err)
	}

	return zipPath, nil
}
