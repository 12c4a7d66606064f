package operations

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ochronus/fileapictl/internal/app"
	"github.com/ochronus/fileapictl/internal/services/fileapi"
	"github.com/sirupsen/logrus"
)

const (
	bytesPerMB   = 1024 * 1024
	timeLayout   = "2006-01-02 15:04:05"
	bannerRule   = "================================================================"
	tableRuleLen = 70
)

// ErrAlreadyExists is returned by SafeUpload when SkipExisting is set and the
// remote name is taken.
var ErrAlreadyExists = errors.New("file already exists")

// Runner executes API operations and writes a human-readable report for each.
type Runner struct {
	client  fileapi.ClientAPI
	out     io.Writer
	logger  *logrus.Logger
	quotaMB int
}

// NewRunner creates a Runner from the container's client, output and config.
func NewRunner(container *app.Container) *Runner {
	return &Runner{
		client:  container.Client,
		out:     container.Out,
		logger:  container.Logger,
		quotaMB: container.Config.QuotaMB,
	}
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func (r *Runner) println(args ...any) {
	fmt.Fprintln(r.out, args...)
}

// reportFailure prints the HTTP code (or the transport error) for a failed call.
func (r *Runner) reportFailure(resp *fileapi.Response) {
	if resp.TransportErr != nil {
		r.printf("Error: %v\n", resp.TransportErr)
	}
	r.printf("HTTP Code: %d\n", resp.StatusCode)
}

// CheckHealth calls the health endpoint.
func (r *Runner) CheckHealth(ctx context.Context) error {
	r.println("=== Checking API Health ===")
	defer r.println()

	resp, err := r.client.Health(ctx)
	if err != nil {
		r.println("[FAIL] API health check failed")
		r.reportFailure(resp)
		r.logger.Warnf("health check failed: %v", err)
		return fmt.Errorf("health check: %w", err)
	}

	r.println("[OK] API is healthy")
	r.printf("Response: %s\n", resp.PrettyJSON())
	return nil
}

// UploadFile uploads a single local file.
func (r *Runner) UploadFile(ctx context.Context, path string) error {
	r.println("=== Uploading File ===")

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		r.printf("[FAIL] File not found: %s\n\n", path)
		return fmt.Errorf("%w: %s", fileapi.ErrLocalFileMissing, path)
	}

	r.printf("File: %s\n", filepath.Base(path))
	r.printf("Size: %d bytes\n", info.Size())

	resp, err := r.client.Upload(ctx, path)
	if err != nil {
		r.println("[FAIL] Upload failed")
		r.reportFailure(resp)
		r.printf("Response: %s\n\n", resp.Body())
		r.logger.Warnf("upload of %s failed: %v", path, err)
		return fmt.Errorf("upload %s: %w", filepath.Base(path), err)
	}

	r.println("[OK] Upload successful")
	r.printf("Response: %s\n\n", resp.PrettyJSON())
	r.logger.Infof("uploaded %s (%d bytes)", filepath.Base(path), info.Size())
	return nil
}

// ListFiles prints the remote file table and returns the listing.
func (r *Runner) ListFiles(ctx context.Context) ([]fileapi.FileMetadata, error) {
	r.println("=== Listing Files ===")
	defer r.println()

	list, resp, err := r.client.List(ctx)
	if err != nil {
		r.println("[FAIL] Failed to list files")
		r.reportFailure(resp)
		r.logger.Warnf("list failed: %v", err)
		return nil, fmt.Errorf("list files: %w", err)
	}

	r.printf("[OK] Found %d files\n\n", len(list.Files))
	if len(list.Files) == 0 {
		r.println("No files uploaded yet.")
		return list.Files, nil
	}

	r.printf("%-30s %-15s %-20s\n", "Filename", "Size (bytes)", "Modified")
	r.println(strings.Repeat("-", tableRuleLen))
	for _, f := range list.Files {
		r.printf("%-30s %-15d %-20s\n", f.Name, f.Size, f.ModifiedTime().Format(timeLayout))
	}
	return list.Files, nil
}

// Quota summarizes storage use against the client-side quota.
type Quota struct {
	Files     int
	UsedBytes int64
	QuotaMB   int
}

// QuotaBytes returns the quota ceiling in bytes.
func (q Quota) QuotaBytes() int64 {
	return int64(q.QuotaMB) * bytesPerMB
}

// AvailableBytes may be negative when the quota is exceeded.
func (q Quota) AvailableBytes() int64 {
	return q.QuotaBytes() - q.UsedBytes
}

// Percent returns UsedBytes as a percentage of the quota.
func (q Quota) Percent() float64 {
	if q.QuotaMB <= 0 {
		return 0
	}
	return float64(q.UsedBytes) / float64(q.QuotaBytes()) * 100
}

func formatMB(b int64) string {
	return humanize.FormatFloat("#,###.##", float64(b)/bytesPerMB)
}

// QuotaInfo derives usage from the file listing and prints it.
func (r *Runner) QuotaInfo(ctx context.Context) (*Quota, error) {
	r.println("=== Storage Quota ===")
	defer r.println()

	list, resp, err := r.client.List(ctx)
	if err != nil {
		r.println("[FAIL] Failed to get quota information")
		r.reportFailure(resp)
		r.logger.Warnf("quota lookup failed: %v", err)
		return nil, fmt.Errorf("quota info: %w", err)
	}

	q := &Quota{
		Files:     len(list.Files),
		UsedBytes: list.TotalSize(),
		QuotaMB:   r.quotaMB,
	}

	r.printf("Files: %d\n", q.Files)
	r.printf("Used: %s MB\n", formatMB(q.UsedBytes))
	r.printf("Quota: %d MB\n", q.QuotaMB)
	r.printf("Available: %s MB\n", formatMB(q.AvailableBytes()))
	r.printf("Usage: %s%%\n", humanize.FormatFloat("#,###.#", q.Percent()))
	return q, nil
}

// DownloadFile fetches name and, when savePath is non-empty, writes the body to it.
func (r *Runner) DownloadFile(ctx context.Context, name, savePath string) error {
	r.println("=== Downloading File ===")
	r.printf("Filename: %s\n", name)
	defer r.println()

	resp, err := r.client.Download(ctx, name)
	if err != nil {
		r.println("[FAIL] Download failed")
		r.reportFailure(resp)
		r.logger.Warnf("download of %s failed: %v", name, err)
		return fmt.Errorf("download %s: %w", name, err)
	}

	if savePath == "" {
		r.println("[OK] Downloaded (not saved)")
		r.printf("Size: %d bytes\n", len(resp.Raw))
		return nil
	}

	if err := writeFileAtomic(savePath, resp.Raw); err != nil {
		r.printf("[FAIL] Could not save to %s: %v\n", savePath, err)
		r.logger.Errorf("saving %s to %s failed: %v", name, savePath, err)
		return fmt.Errorf("save %s: %w", name, err)
	}

	r.printf("[OK] Downloaded to: %s\n", savePath)
	r.printf("Size: %d bytes\n", len(resp.Raw))
	r.logger.Infof("downloaded %s to %s (%d bytes)", name, savePath, len(resp.Raw))
	return nil
}

// writeFileAtomic writes data to a sibling ".downloading" file and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmpPath := path + ".downloading"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// DeleteFile removes name from the remote store.
func (r *Runner) DeleteFile(ctx context.Context, name string) error {
	r.println("=== Deleting File ===")
	r.printf("Filename: %s\n", name)
	defer r.println()

	resp, err := r.client.Delete(ctx, name)
	if err != nil {
		r.println("[FAIL] Delete failed")
		r.reportFailure(resp)
		r.logger.Warnf("delete of %s failed: %v", name, err)
		return fmt.Errorf("delete %s: %w", name, err)
	}

	r.println("[OK] Deleted")
	r.printf("Response: %s\n", resp.PrettyJSON())
	return nil
}

// SafeUploadOptions controls SafeUpload.
type SafeUploadOptions struct {
	// SkipExisting refuses the upload when the name is already taken.
	SkipExisting bool
}

// SafeUpload checks the remote listing for a name collision before uploading.
// A collision only warns unless opts.SkipExisting is set. A failed listing
// falls through to the upload.
func (r *Runner) SafeUpload(ctx context.Context, path string, opts SafeUploadOptions) error {
	list, _, err := r.client.List(ctx)
	if err != nil {
		r.logger.Warnf("could not list files before upload, continuing: %v", err)
		return r.UploadFile(ctx, path)
	}

	name := filepath.Base(path)
	if list.Contains(name) {
		if opts.SkipExisting {
			r.printf("WARNING: File '%s' already exists. Skipping.\n", name)
			return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
		}
		r.printf("WARNING: File '%s' already exists. Overwriting...\n", name)
	}

	return r.UploadFile(ctx, path)
}

// Demo runs the read-only tour: health, listing and quota. Individual
// failures are reported but do not stop the tour.
func (r *Runner) Demo(ctx context.Context) error {
	r.println()
	r.println(bannerRule)
	r.println("  Course File API - Go Client")
	r.println(bannerRule)
	r.println()

	steps := []func(context.Context) error{
		r.CheckHealth,
		func(ctx context.Context) error { _, err := r.ListFiles(ctx); return err },
		func(ctx context.Context) error { _, err := r.QuotaInfo(ctx); return err },
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step(ctx); err != nil {
			r.logger.Debugf("demo step failed: %v", err)
		}
	}

	r.println(bannerRule)
	r.println("  Complete! Check the examples above.")
	r.println(bannerRule)
	r.println()
	return nil
}
