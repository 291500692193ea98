// Package output persists the artifacts of one analysis run under a
// timestamped directory and records their SHA-256 hashes in a manifest.
package output

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// File names written into a run directory.
const (
	ExtractionFile = "extraction.json"
	ReasoningFile  = "reasoning.json"
	AnalysisFile   = "analysis.json"
	SummaryFile    = "summary.txt"
	RunMetaFile    = "run_meta.json"
	ManifestFile   = "manifest.json"
)

// Writer saves run outputs to disk.
// Safe for concurrent use.
type Writer struct {
	outputDir string
	mu        sync.Mutex
	hashes    []FileHash // accumulated hashes for manifest
}

// FileHash records the SHA-256 hash of a saved file.
type FileHash struct {
	File   string `json:"file"`
	SHA256 string `json:"sha256"`
	Size   int    `json:"size"`
}

// NewWriter creates a Writer for the given output directory.
func NewWriter(outputDir string) (*Writer, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Writer{outputDir: outputDir}, nil
}

// OutputDir returns the output directory path.
func (w *Writer) OutputDir() string {
	return w.outputDir
}

// SaveFile writes data to name inside the output directory and records its hash.
func (w *Writer) SaveFile(name string, data []byte) error {
	path := filepath.Join(w.outputDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	w.mu.Lock()
	w.hashes = append(w.hashes, FileHash{
		File:   name,
		SHA256: sha256Hex(data),
		Size:   len(data),
	})
	w.mu.Unlock()
	return nil
}

// SaveJSON writes v as indented JSON.
func (w *Writer) SaveJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	return w.SaveFile(name, data)
}

// SaveRaw keeps the unparseable generation text of a stage as <stage>.raw.txt.
func (w *Writer) SaveRaw(stage, raw string) error {
	return w.SaveFile(stage+".raw.txt", []byte(raw))
}

// sha256Hex computes the SHA-256 hex digest of data.
func sha256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// RunMeta holds metadata about one pipeline run.
type RunMeta struct {
	SourceFile      string    `json:"source_file"`
	Provider        string    `json:"provider"`
	ExtractionModel string    `json:"extraction_model"`
	ReasoningModel  string    `json:"reasoning_model"`
	StartedAt       time.Time `json:"started_at"`
	CompletedAt     time.Time `json:"completed_at"`
	Duration        string    `json:"duration"`
	Artifacts       int       `json:"artifacts"`
	ReasoningChains int       `json:"reasoning_chains"`
	RuleMatches     int       `json:"rule_matches"`
	Warnings        []string  `json:"warnings,omitempty"`
	Error           string    `json:"error,omitempty"`
}

// Manifest records all output file hashes for integrity verification.
type Manifest struct {
	GeneratedAt time.Time  `json:"generated_at"`
	SourceFile  string     `json:"source_file"`
	Files       []FileHash `json:"files"`
}

// SaveMeta writes the run metadata to run_meta.json.
func (w *Writer) SaveMeta(meta RunMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	path := filepath.Join(w.outputDir, RunMetaFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return nil
}

// SaveManifest writes the hash manifest to manifest.json.
func (w *Writer) SaveManifest(sourceFile string) error {
	manifest := Manifest{
		GeneratedAt: time.Now().UTC(),
		SourceFile:  sourceFile,
		Files:       w.Hashes(),
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	path := filepath.Join(w.outputDir, ManifestFile)
	return os.WriteFile(path, data, 0644)
}

// Hashes returns the accumulated file hashes.
func (w *Writer) Hashes() []FileHash {
	w.mu.Lock()
	defer w.mu.Unlock()
	cp := make([]FileHash, len(w.hashes))
	copy(cp, w.hashes)
	return cp
}

// GenerateOutputDir names the run directory for reportPath under baseDir:
// <baseDir>/<report name without extension>_<timestamp>.
func GenerateOutputDir(baseDir, reportPath string, now time.Time) string {
	base := filepath.Base(reportPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "report"
	}
	return filepath.Join(baseDir, base+"_"+now.Format("2006-01-02T15-04-05"))
}
