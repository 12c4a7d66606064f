package operations

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// BatchResult counts the outcome of a multi-file operation.
type BatchResult struct {
	Succeeded int
	Failed    int
}

// Total returns the number of items attempted.
func (b BatchResult) Total() int {
	return b.Succeeded + b.Failed
}

// regularFiles returns the regular files directly inside dir, sorted by name.
// Symlinks are followed; subdirectories are skipped.
func regularFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

// BatchUpload uploads every regular file in dir. A failed upload is counted
// and the batch moves on.
func (r *Runner) BatchUpload(ctx context.Context, dir string) (BatchResult, error) {
	r.println("=== Batch Upload from Directory ===")

	var result BatchResult
	files, err := regularFiles(dir)
	if err != nil {
		r.printf("[FAIL] Cannot read directory %s: %v\n\n", dir, err)
		return result, fmt.Errorf("batch upload: %w", err)
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		r.printf("Uploading: %s... ", filepath.Base(path))
		if err := r.UploadFile(ctx, path); err != nil {
			result.Failed++
			continue
		}
		result.Succeeded++
	}

	r.println()
	r.println("Summary:")
	r.printf("Uploaded: %d\n", result.Succeeded)
	r.printf("Failed: %d\n", result.Failed)
	r.println()

	r.logger.Infof("batch upload from %s: %d uploaded, %d failed", dir, result.Succeeded, result.Failed)
	return result, nil
}

// BackupAllFiles downloads every remote file into dir, creating it if needed.
// Remote names are reduced to their base name so nothing lands outside dir.
func (r *Runner) BackupAllFiles(ctx context.Context, dir string) (BatchResult, error) {
	r.println("=== Backing Up All Files ===")

	var result BatchResult
	if err := os.MkdirAll(dir, 0755); err != nil {
		r.printf("[FAIL] Cannot create backup directory %s: %v\n\n", dir, err)
		return result, fmt.Errorf("backup: %w", err)
	}

	list, resp, err := r.client.List(ctx)
	if err != nil {
		r.println("[FAIL] Failed to list files")
		r.reportFailure(resp)
		r.println()
		return result, fmt.Errorf("backup: %w", err)
	}

	r.printf("Found %d files to backup\n", len(list.Files))

	for _, f := range list.Files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		base := filepath.Base(f.Name)
		if base == "." || base == ".." || base == string(filepath.Separator) {
			r.logger.Warnf("skipping file with unusable name %q", f.Name)
			result.Failed++
			continue
		}

		r.printf("Downloading: %s... ", f.Name)
		if err := r.DownloadFile(ctx, f.Name, filepath.Join(dir, base)); err != nil {
			r.println("[FAIL]")
			result.Failed++
			continue
		}
		r.println("[OK]")
		result.Succeeded++
	}

	r.println("Backup complete!")
	r.println()

	r.logger.Infof("backup to %s: %d downloaded, %d failed", dir, result.Succeeded, result.Failed)
	return result, nil
}
