package operations

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestBatchUploadCountsEveryRegularFile(t *testing.T) {
	runner, api, out := setupRunner(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "a")
	writeFile(t, dir, "b.txt", "bb")
	writeFile(t, dir, ".hidden", "h")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}
	writeFile(t, filepath.Join(dir, "sub"), "nested.txt", "n")

	result, err := runner.BatchUpload(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Succeeded != 3 || result.Failed != 0 {
		t.Errorf("expected 3 uploaded / 0 failed, got %+v", result)
	}
	if api.FileCount() != 3 {
		t.Errorf("expected 3 stored files, got %d", api.FileCount())
	}
	if _, ok := api.File("nested.txt"); ok {
		t.Error("expected subdirectories to be skipped")
	}
	assertContains(t, out.String(), "Summary:", "Uploaded: 3", "Failed: 0")
}

func TestBatchUploadContinuesPastFailures(t *testing.T) {
	runner, api, out := setupRunner(t)
	api.FailWith("upload", http.StatusInsufficientStorage)
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "a")
	writeFile(t, dir, "b.txt", "b")

	result, err := runner.BatchUpload(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total() != 2 || result.Failed != 2 {
		t.Errorf("expected 2 failures, got %+v", result)
	}
	if api.Hits("upload") != 2 {
		t.Errorf("expected both uploads to be attempted, got %d", api.Hits("upload"))
	}
	assertContains(t, out.String(), "Uploaded: 0", "Failed: 2")
}

func TestBatchUploadFollowsSymlinks(t *testing.T) {
	runner, _, _ := setupRunner(t)
	src := t.TempDir()
	target := writeFile(t, src, "real.txt", "r")

	dir := t.TempDir()
	if err := os.Symlink(target, filepath.Join(dir, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(filepath.Join(src, "gone"), filepath.Join(dir, "dangling")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	result, err := runner.BatchUpload(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Succeeded != 1 || result.Failed != 0 {
		t.Errorf("expected only the live link to count, got %+v", result)
	}
}

func TestBatchUploadMissingDirectory(t *testing.T) {
	runner, _, _ := setupRunner(t)

	if _, err := runner.BatchUpload(context.Background(), filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestBackupAllFiles(t *testing.T) {
	runner, api, out := setupRunner(t)
	api.PutFile("a.txt", []byte("alpha"), time.Now())
	api.PutFile("b.txt", []byte("beta"), time.Now())

	dir := filepath.Join(t.TempDir(), "backup", "today")
	result, err := runner.BackupAllFiles(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Succeeded != 2 || result.Failed != 0 {
		t.Errorf("expected 2 downloads, got %+v", result)
	}

	for name, want := range map[string]string{"a.txt": "alpha", "b.txt": "beta"} {
		got, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("expected %s in backup: %v", name, err)
		}
		if string(got) != want {
			t.Errorf("%s: expected %q, got %q", name, want, got)
		}
	}
	assertContains(t, out.String(), "Found 2 files to backup", "Backup complete!")
}

func TestBackupAllFilesCountsFailedDownloads(t *testing.T) {
	runner, api, out := setupRunner(t)
	api.PutFile("a.txt", []byte("alpha"), time.Now())
	api.FailWith("download", http.StatusForbidden)

	result, err := runner.BackupAllFiles(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Failed != 1 {
		t.Errorf("expected 1 failure, got %+v", result)
	}
	assertContains(t, out.String(), "[FAIL]", "Backup complete!")
}

func TestBackupAllFilesListFailure(t *testing.T) {
	runner, api, out := setupRunner(t)
	api.FailWith("list", http.StatusInternalServerError)
	dir := filepath.Join(t.TempDir(), "created")

	if _, err := runner.BackupAllFiles(context.Background(), dir); err == nil {
		t.Fatal("expected error when listing fails")
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Error("expected backup directory to be created before listing")
	}
	assertContains(t, out.String(), "[FAIL] Failed to list files")
}
