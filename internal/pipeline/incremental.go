package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/theirongolddev/spendwise/internal/categorize"
	"github.com/theirongolddev/spendwise/internal/model"
	"github.com/theirongolddev/spendwise/internal/source"
	"github.com/theirongolddev/spendwise/internal/store"
)

// Store is the persistence an import needs. Tracker entries are per user.
type Store interface {
	GetTrackedFiles(ctx context.Context, userID string) (map[string]store.FileInfo, error)
	TrackFile(ctx context.Context, userID, path string, fi store.FileInfo) error
	DeleteFileTracker(ctx context.Context, userID, path string) error
	ReplaceFileTransactions(ctx context.Context, userID, path string, txns []model.Transaction) error
}

// ImportOptions controls an import run.
type ImportOptions struct {
	UserID     string
	Classifier *categorize.Classifier
	// Force re-parses files even when their mtime and size are unchanged.
	Force    bool
	Progress ProgressFunc
}

// ImportResult summarizes an import run.
type ImportResult struct {
	TotalFiles  int
	Unchanged   int
	ParsedFiles int
	FileErrors  int
	Imported    int
	Invalid     int
	// Forgotten counts tracked files under dir that no longer exist.
	Forgotten int
	// Errors holds file-level and row-level errors in file order.
	Errors []error
}

// Import discovers files under dir, diffs them against the user's tracker,
// parses only changed files and replaces the transactions previously
// imported from each. A file is tracked only after its transactions are
// saved, so a failed save is retried next run. Paths are made absolute so
// tracker entries do not depend on the working directory.
func Import(ctx context.Context, dir string, st Store, opts ImportOptions) (*ImportResult, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}
	dir = abs

	files, err := source.ScanDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	result := &ImportResult{TotalFiles: len(files)}

	tracked, err := st.GetTrackedFiles(ctx, opts.UserID)
	if err != nil {
		return nil, fmt.Errorf("reading file tracker: %w", err)
	}

	// Forget deleted files so a file restored later is imported again.
	present := make(map[string]struct{}, len(files))
	for _, f := range files {
		present[f.Path] = struct{}{}
	}
	prefix := dir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	for path := range tracked {
		if _, ok := present[path]; ok || !strings.HasPrefix(path, prefix) {
			continue
		}
		if err := st.DeleteFileTracker(ctx, opts.UserID, path); err != nil {
			return nil, fmt.Errorf("forgetting %s: %w", path, err)
		}
		result.Forgotten++
	}

	// Diff: partition into changed and unchanged
	var changed []source.DiscoveredFile
	var infos []store.FileInfo
	for _, f := range files {
		info, err := os.Stat(f.Path)
		if err != nil {
			result.FileErrors++
			result.Errors = append(result.Errors, err)
			continue
		}
		fi := store.FileInfo{MtimeNs: info.ModTime().UnixNano(), SizeBytes: info.Size()}

		if prev, ok := tracked[f.Path]; ok && !opts.Force && prev == fi {
			result.Unchanged++
			continue
		}
		changed = append(changed, f)
		infos = append(infos, fi)
	}

	progress := opts.Progress
	if progress != nil {
		unchanged := result.Unchanged
		progress = func(current, _ int) {
			opts.Progress(current+unchanged, result.TotalFiles)
		}
	}

	results, err := ParseFiles(ctx, changed, source.Options{UserID: opts.UserID, Classifier: opts.Classifier}, progress)
	if err != nil {
		return nil, err
	}

	for i, pr := range results {
		if pr.Err != nil {
			result.FileErrors++
			result.Errors = append(result.Errors, pr.Err)
			continue
		}
		result.ParsedFiles++
		result.Invalid += pr.Invalid
		result.Errors = append(result.Errors, pr.RowErrors...)

		if err := st.ReplaceFileTransactions(ctx, opts.UserID, changed[i].Path, pr.Transactions); err != nil {
			return result, fmt.Errorf("saving %s: %w", changed[i].Path, err)
		}
		result.Imported += len(pr.Transactions)
		if err := st.TrackFile(ctx, opts.UserID, changed[i].Path, infos[i]); err != nil {
			return result, fmt.Errorf("tracking %s: %w", changed[i].Path, err)
		}
	}

	return result, nil
}
