package merge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"coursemerge/internal/archive"
	"coursemerge/internal/config"
	"coursemerge/internal/course"
	"coursemerge/internal/logging"
)

// MergeError reports a failed merge: an input archive that could not be read
// or an output archive that could not be written.
type MergeError struct {
	Op  string
	Err error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("merge %s: %v", e.Op, e.Err)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}

// IsMergeError reports whether err is (or wraps) a MergeError.
func IsMergeError(err error) bool {
	var me *MergeError
	return errors.As(err, &me)
}

// ProgressFunc receives the fixed milestone progression during a merge. The
// percentages are a caller contract (they drive progress bars): manifest 5,
// menu 10, per-package work interpolated across 15-85, packaging 90,
// complete 100.
type ProgressFunc func(step string, progress int)

// Merger assembles merged course archives.
type Merger struct {
	outputDir string
	logger    *slog.Logger
}

// NewMerger constructs a merger writing into the configured output directory.
func NewMerger(cfg *config.Config, logger *slog.Logger) *Merger {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Merger{
		outputDir: cfg.Paths.OutputDir,
		logger:    logging.NewComponentLogger(logger, "merge"),
	}
}

const packageFolderPrefix = "package_"

// Merge combines the ordered packages into a single archive and returns its
// path. Package order is the caller's: folder numbering and manifest item
// order both follow it exactly. An empty list still yields a valid archive
// containing only the manifest and menu.
func (m *Merger) Merge(ctx context.Context, packages []*course.Package, onProgress ProgressFunc) (string, error) {
	emit := func(step string, progress int) {
		if onProgress != nil {
			onProgress(step, progress)
		}
	}

	outputPath := filepath.Join(m.outputDir, fmt.Sprintf("merged-%d.zip", time.Now().UnixMilli()))
	writer, err := archive.NewWriter(outputPath)
	if err != nil {
		return "", &MergeError{Op: "create output", Err: err}
	}
	// Close is repeated on the error paths; the second close failing is fine.
	defer writer.Close()

	emit("creating manifest", 5)
	if err := writer.Add("imsmanifest.xml", []byte(buildManifest(packages))); err != nil {
		return "", &MergeError{Op: "write manifest", Err: err}
	}

	emit("creating menu", 10)
	for _, asset := range menuAssets(packages) {
		if err := writer.Add(asset.name, asset.data); err != nil {
			return "", &MergeError{Op: "write menu", Err: err}
		}
	}

	for i, pkg := range packages {
		if err := ctx.Err(); err != nil {
			return "", &MergeError{Op: "copy packages", Err: err}
		}
		step := fmt.Sprintf("processing package %d of %d", i+1, len(packages))
		emit(step, packageProgress(i, len(packages)))

		folder := fmt.Sprintf("%s%d", packageFolderPrefix, i+1)
		if err := m.copyPackage(writer, pkg, folder); err != nil {
			return "", err
		}
	}

	emit("final packaging", 90)
	if err := writer.Close(); err != nil {
		return "", &MergeError{Op: "finalize output", Err: err}
	}

	emit("complete", 100)
	m.logger.Info("merge complete",
		logging.Int("packages", len(packages)),
		logging.String("output", outputPath))
	return outputPath, nil
}

// packageProgress interpolates the 15-85 band. It is emitted as package i of
// n starts, so the first package reports exactly 15 rather than jumping
// straight to its completion percentage.
func packageProgress(index, total int) int {
	if total <= 0 {
		return 15
	}
	return 15 + 70*index/total
}

// copyPackage copies every file from the package's backing archive into the
// given folder, skipping its manifest and injecting the finish handler into
// markup files. Injection failures pass the original bytes through.
func (m *Merger) copyPackage(writer *archive.Writer, pkg *course.Package, folder string) error {
	reader, err := archive.Open(pkg.Path)
	if err != nil {
		return &MergeError{Op: "open package " + pkg.Identifier, Err: err}
	}
	defer reader.Close()

	for _, entry := range reader.Entries() {
		if entry.Dir || isRootManifest(entry.Name) {
			continue
		}
		data, err := entry.ReadAll()
		if err != nil {
			return &MergeError{Op: "read " + entry.Name, Err: err}
		}
		if isMarkupFile(entry.Name) {
			if injected, ok := InjectFinishHandler(data); ok {
				data = injected
			} else {
				m.logger.Warn("finish handler not injected",
					logging.String(logging.FieldPackage, pkg.Identifier),
					logging.String("file", entry.Name))
			}
		}
		if err := writer.Add(folder+"/"+entry.Name, data); err != nil {
			return &MergeError{Op: "write " + entry.Name, Err: err}
		}
	}
	return nil
}

func isRootManifest(name string) bool {
	return !strings.Contains(name, "/") && strings.EqualFold(name, "imsmanifest.xml")
}

func isMarkupFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".html", ".htm":
		return true
	}
	return false
}
