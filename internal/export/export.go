// Package export moves archived runs between results stores as portable,
// checksummed files.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/nvandessel/ratingsim/internal/models"
	"github.com/nvandessel/ratingsim/internal/pathutil"
	"github.com/nvandessel/ratingsim/internal/store"
)

// Extension is the file suffix of generated export paths.
const Extension = ".json.gz"

// Archive is the payload of an export file.
type Archive struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Runs      []Run     `json:"runs"`
}

// Run is one archived run with its agents.
type Run struct {
	store.Run
	Agents []models.Snapshot `json:"agents"`
}

// RunStore is the part of the results store used by Export and Import.
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]store.Run, error)
	GetRun(ctx context.Context, id string) (*store.Run, error)
	LoadAgents(ctx context.Context, runID string) ([]models.Snapshot, error)
	ImportRun(ctx context.Context, run store.Run, agents []models.Snapshot) error
}

// ImportResult contains statistics about an import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	IDs      []string `json:"ids"`
}

// Export writes the runs with the given IDs, or every archived run when ids
// is empty, to outputPath. When allowedDirs are given, outputPath must lie
// inside one of them.
func Export(ctx context.Context, st RunStore, ids []string, outputPath string, allowedDirs ...string) (*Archive, error) {
	if len(allowedDirs) > 0 {
		resolved, err := pathutil.Confine(outputPath, allowedDirs...)
		if err != nil {
			return nil, fmt.Errorf("export path rejected: %w", err)
		}
		outputPath = resolved
	}

	if len(ids) == 0 {
		runs, err := st.ListRuns(ctx, 0)
		if err != nil {
			return nil, err
		}
		for _, r := range runs {
			ids = append(ids, r.ID)
		}
	}

	a := &Archive{
		Version:   FormatVersion,
		CreatedAt: time.Now().UTC(),
		Runs:      make([]Run, 0, len(ids)),
	}
	for _, id := range ids {
		run, err := st.GetRun(ctx, id)
		if err != nil {
			return nil, err
		}
		agents, err := st.LoadAgents(ctx, id)
		if err != nil {
			return nil, err
		}
		a.Runs = append(a.Runs, Run{Run: *run, Agents: agents})
	}

	if err := Write(outputPath, a); err != nil {
		return nil, fmt.Errorf("failed to write export %s: %w", pathutil.Redact(outputPath), err)
	}
	return a, nil
}

// Import archives every run of the export at inputPath. Runs whose ID is
// already archived are skipped. When allowedDirs are given, inputPath must
// lie inside one of them.
func Import(ctx context.Context, st RunStore, inputPath string, allowedDirs ...string) (*ImportResult, error) {
	if len(allowedDirs) > 0 {
		resolved, err := pathutil.Confine(inputPath, allowedDirs...)
		if err != nil {
			return nil, fmt.Errorf("import path rejected: %w", err)
		}
		inputPath = resolved
	}

	a, err := Read(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read export %s: %w", pathutil.Redact(inputPath), err)
	}

	result := &ImportResult{IDs: []string{}}
	for _, r := range a.Runs {
		err := st.ImportRun(ctx, r.Run, r.Agents)
		if errors.Is(err, store.ErrRunExists) {
			result.Skipped++
			continue
		}
		if err != nil {
			return nil, err
		}
		result.Imported++
		result.IDs = append(result.IDs, r.ID)
	}
	return result, nil
}

// Dir returns the exports directory under a ratingsim data directory.
func Dir(base string) string {
	return filepath.Join(base, "exports")
}

// GeneratePath creates a timestamped export filename in dir.
func GeneratePath(dir string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("ratingsim-export-%s%s", now.Format("20060102-150405.000"), Extension))
}

// Rotate keeps only the keepN most recent exports in dir, deleting older ones.
func Rotate(dir string, keepN int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read export directory: %w", err)
	}

	var exports []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "ratingsim-export-") && strings.HasSuffix(e.Name(), Extension) {
			exports = append(exports, e.Name())
		}
	}

	// Newest first since the timestamp is in the name.
	sort.Sort(sort.Reverse(sort.StringSlice(exports)))

	if len(exports) <= keepN {
		return nil
	}
	for _, name := range exports[keepN:] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("failed to remove old export %s: %w", name, err)
		}
	}
	return nil
}
