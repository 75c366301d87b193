package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"
)

// Target is a data directory and the extension of the files archived from it.
type Target struct {
	Dir string
	Ext string
}

// Result describes one completed Archive call. ArchivePath is empty when
// there was nothing to archive.
type Result struct {
	ArchivePath string
	Files       []string
}

// archiveFile is the destination of an archive write.
type archiveFile interface {
	io.Writer
	Sync() error
	Close() error
}

// Archiver bundles data files into timestamped tar.gz archives and disposes
// of the originals afterwards.
type Archiver struct {
	trasher Trasher
	create  func(path string) (archiveFile, error)
}

// NewArchiver creates an archiver that hands archived originals to trasher.
func NewArchiver(trasher Trasher) *Archiver {
	return &Archiver{
		trasher: trasher,
		create:  createExclusive,
	}
}

func createExclusive(path string) (archiveFile, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
}

// ArchiveName returns <dir>/<base of dir>_<ts>.tar.gz.
func ArchiveName(dir string, ts int64) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%d.tar.gz", filepath.Base(abs), ts)), nil
}

// Archive collects the regular files in dir (not recursing) whose name ends
// in .<ext> into a single archive named after dir and ts, then trashes them.
// Originals are only touched after the archive has been completely written
// and synced.
func (a *Archiver) Archive(dir, ext string, ts int64) (*Result, error) {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return nil, ErrExtensionNotSpecified
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, dir)
	}

	files, err := matchingFiles(dir, ext)
	if err != nil {
		return nil, err
	}

	logger := log.With().Str("dir", dir).Str("ext", ext).Logger()

	if len(files) == 0 {
		logger.Info().Msg("No matching files, nothing to do")
		return &Result{}, nil
	}

	path, err := ArchiveName(dir, ts)
	if err != nil {
		return nil, &ArchiveError{Path: dir, Err: err}
	}

	if err := a.write(path, dir, files); err != nil {
		logger.Error().Err(err).Str("archive", path).Msg("Archive failed, keeping originals")
		return nil, err
	}

	logger.Info().
		Str("archive", path).
		Int("files", len(files)).
		Msg("Archive created")

	var trashErrs []error
	for _, name := range files {
		if err := a.trasher.Trash(filepath.Join(dir, name)); err != nil {
			logger.Warn().Err(err).Str("file", name).Msg("Failed to remove archived file")
			trashErrs = append(trashErrs, err)
		}
	}

	result := &Result{ArchivePath: path, Files: files}
	if len(trashErrs) > 0 {
		return result, fmt.Errorf("archived %s but failed to remove originals: %w", path, errors.Join(trashErrs...))
	}
	return result, nil
}

// ArchiveAll runs Archive for every target in order with the same timestamp.
// A failing target is logged and the next one is still attempted.
func (a *Archiver) ArchiveAll(targets []Target, ts int64) error {
	var errs []error
	for _, t := range targets {
		if _, err := a.Archive(t.Dir, t.Ext, ts); err != nil {
			log.Error().Err(err).Str("dir", t.Dir).Str("ext", t.Ext).Msg("Archiving failed")
			errs = append(errs, fmt.Errorf("%s: %w", t.Dir, err))
		}
	}
	return errors.Join(errs...)
}

// matchingFiles lists the names of regular files in dir ending in .<ext>, sorted.
func matchingFiles(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	suffix := "." + ext
	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if strings.HasSuffix(entry.Name(), suffix) {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// write creates the archive at path. On any failure the partial archive is
// removed and an *ArchiveError is returned.
func (a *Archiver) write(path, dir string, files []string) (err error) {
	f, err := a.create(path)
	if err != nil {
		return &ArchiveError{Path: path, Err: err}
	}

	defer func() {
		if err == nil {
			return
		}
		f.Close()
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			log.Warn().Err(rmErr).Str("archive", path).Msg("Failed to remove partial archive")
		}
		err = &ArchiveError{Path: path, Err: err}
	}()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	for _, name := range files {
		if err = addFile(tw, dir, name); err != nil {
			return err
		}
	}

	if err = tw.Close(); err != nil {
		return err
	}
	if err = gz.Close(); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	return f.Close()
}

func addFile(tw *tar.Writer, dir, name string) error {
	src, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return err
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if _, err := io.Copy(tw, src); err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	return nil
}
