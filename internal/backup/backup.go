// Package backup provides tar.gz-based backup and restore for RigForge data.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// DatabaseFile is the database file name inside a data directory.
const DatabaseFile = "rigforge.db"

// ArchivePrefix and ArchiveSuffix frame generated archive names.
const (
	ArchivePrefix = "rigforge-backup-"
	ArchiveSuffix = ".tar.gz"
)

// ErrUnsafePath is returned when an archive entry would escape the target
// directory.
var ErrUnsafePath = errors.New("unsafe path in archive")

// ArchiveName returns the default archive file name for time t.
func ArchiveName(t time.Time) string {
	return ArchivePrefix + t.Format("20060102-150405") + ArchiveSuffix
}

// Backup creates a tar.gz archive containing the SQLite database and an
// optional config file. It performs a WAL checkpoint before copying the
// database to ensure consistency.
func Backup(ctx context.Context, dbPath, configPath, outputPath string) (err error) {
	// Verify database exists.
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("database file not found: %w", err)
	}

	// Checkpoint WAL to flush pending writes.
	if err := checkpointWAL(ctx, dbPath); err != nil {
		return fmt.Errorf("WAL checkpoint failed: %w", err)
	}

	outFile, err := os.Create(outputPath) //nolint:gosec // operator-supplied output path
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		if cerr := outFile.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(outputPath)
		}
	}()

	gw := gzip.NewWriter(outFile)
	tw := tar.NewWriter(gw)

	if err := addFileToTar(tw, dbPath, filepath.Base(dbPath)); err != nil {
		return fmt.Errorf("adding database to archive: %w", err)
	}

	// A missing config file is skipped silently.
	if configPath != "" {
		if _, statErr := os.Stat(configPath); statErr == nil {
			if err := addFileToTar(tw, configPath, filepath.Base(configPath)); err != nil {
				return fmt.Errorf("adding config to archive: %w", err)
			}
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return nil
}

// Restore extracts an archive created by Backup into dataDir. Existing files
// are only replaced when force is set, in which case stale WAL and shared
// memory files of a restored database are removed too. Nothing is written
// unless every entry extracts cleanly.
func Restore(ctx context.Context, archivePath, dataDir string, force bool) error {
	f, err := os.Open(archivePath) //nolint:gosec // operator-supplied archive path
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	defer gr.Close()

	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	var staged []stagedFile
	cleanup := func() {
		for _, s := range staged {
			_ = os.Remove(s.tmp)
		}
	}

	tr := tar.NewReader(gr)
	for {
		if err := ctx.Err(); err != nil {
			cleanup()
			return err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			cleanup()
			return fmt.Errorf("reading archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			cleanup()
			return fmt.Errorf("%w: %q is not a regular file", ErrUnsafePath, hdr.Name)
		}

		name, err := safeName(hdr.Name)
		if err != nil {
			cleanup()
			return err
		}
		target := filepath.Join(dataDir, name)
		if !force {
			if _, err := os.Stat(target); err == nil {
				cleanup()
				return fmt.Errorf("%s already exists (use --force to overwrite)", target)
			}
		}

		tmp, err := stage(tr, dataDir, name, hdr.Size)
		if err != nil {
			cleanup()
			return fmt.Errorf("extracting %s: %w", name, err)
		}
		staged = append(staged, stagedFile{tmp: tmp, target: target})
	}

	if !hasDatabase(staged) {
		cleanup()
		return errors.New("archive does not contain a database")
	}

	for i, s := range staged {
		if strings.HasSuffix(s.target, ".db") {
			_ = os.Remove(s.target + "-wal")
			_ = os.Remove(s.target + "-shm")
		}
		if err := os.Rename(s.tmp, s.target); err != nil {
			for _, rest := range staged[i:] {
				_ = os.Remove(rest.tmp)
			}
			return fmt.Errorf("installing %s: %w", s.target, err)
		}
	}
	return nil
}

// Prune deletes archives in dir whose modification time is older than
// retention, and returns the removed paths.
func Prune(dir string, retention time.Duration, now time.Time) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}
	cutoff := now.Add(-retention)

	var removed []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, ArchivePrefix) || !strings.HasSuffix(name, ArchiveSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return removed, err
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("removing %s: %w", path, err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}

type stagedFile struct {
	tmp    string
	target string
}

func hasDatabase(staged []stagedFile) bool {
	for _, s := range staged {
		if strings.HasSuffix(s.target, ".db") {
			return true
		}
	}
	return false
}

// safeName accepts only plain file names, since Backup never writes
// directories into the archive.
func safeName(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." || clean == ".." || filepath.IsAbs(clean) ||
		strings.ContainsRune(clean, filepath.Separator) || filepath.VolumeName(clean) != "" {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	return clean, nil
}

// stage copies one entry into a temp file next to its final location.
func stage(r io.Reader, dir, name string, size int64) (string, error) {
	tmp, err := os.CreateTemp(dir, "."+name+".restore-*")
	if err != nil {
		return "", err
	}
	n, err := io.Copy(tmp, io.LimitReader(r, size))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil && n != size {
		err = fmt.Errorf("short read: %d of %d bytes", n, size)
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// checkpointWAL opens the database, runs a TRUNCATE checkpoint to flush the
// WAL, and closes the connection.
func checkpointWAL(ctx context.Context, dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)")
	return err
}

// addFileToTar adds a single file to the tar archive under the given name.
func addFileToTar(tw *tar.Writer, filePath, archiveName string) error {
	f, err := os.Open(filePath) //nolint:gosec // paths come from the operator
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = archiveName

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	_, err = io.Copy(tw, f)
	return err
}
