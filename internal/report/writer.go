package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/gofrs/flock"
)

// OpenFunc opens the output file. It matches os.OpenFile.
type OpenFunc func(name string, flag int, perm os.FileMode) (*os.File, error)

// Options configure a Writer.
type Options struct {
	// Incremental writes the header at Create and flushes rows on every
	// Append. Otherwise rows are buffered until Close. Both produce the
	// same bytes.
	Incremental bool

	// Now stamps the fallback filename. Defaults to time.Now.
	Now func() time.Time

	// Open defaults to os.OpenFile.
	Open OpenFunc
}

// Writer serializes validated rows to a CSV file. It is not safe for
// concurrent use; a lock file next to the requested path keeps a second run
// from writing the same report.
type Writer struct {
	schema   Schema
	path     string
	fallback bool
	file     io.WriteCloser
	csv      *csv.Writer
	lock     *flock.Flock
	buffered bool
	pending  [][]string
	rows     int
	closed   bool
}

// Create locks and opens path for writing. If opening fails with a
// permission error it retries once with a timestamped name; any other
// failure is returned.
func Create(path string, schema Schema, opts Options) (*Writer, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Open == nil {
		opts.Open = os.OpenFile
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("another run is writing %s", path)
	}

	const flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	target := path
	fallback := false
	f, err := opts.Open(target, flags, 0o644)
	if errors.Is(err, fs.ErrPermission) {
		target = TimestampedPath(path, opts.Now())
		fallback = true
		f, err = opts.Open(target, flags, 0o644)
	}
	if err != nil {
		releaseLock(lock)
		return nil, fmt.Errorf("opening report: %w", err)
	}

	w := &Writer{
		schema:   schema,
		path:     target,
		fallback: fallback,
		file:     f,
		csv:      csv.NewWriter(f),
		lock:     lock,
		buffered: !opts.Incremental,
	}

	if opts.Incremental {
		if err := w.write(schema.Columns); err != nil {
			_ = w.abort()
			return nil, err
		}
	}
	return w, nil
}

// Path returns the path actually written, which differs from the requested
// one after a permission fallback.
func (w *Writer) Path() string { return w.path }

// UsedFallback reports whether the timestamped fallback name was used.
func (w *Writer) UsedFallback() bool { return w.fallback }

// Rows returns the number of data rows accepted so far.
func (w *Writer) Rows() int { return w.rows }

// Append adds the rows of one project. Rows must already be validated.
func (w *Writer) Append(rows []Row) error {
	if w.closed {
		return errors.New("report writer is closed")
	}
	for _, r := range rows {
		if w.buffered {
			w.pending = append(w.pending, r.Values())
		} else if err := w.write(r.Values()); err != nil {
			return err
		}
		w.rows++
	}
	return nil
}

// Close writes any buffered content, closes the file and releases the lock.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	if w.buffered {
		if err := w.write(w.schema.Columns); err != nil {
			_ = w.abort()
			return err
		}
		for _, rec := range w.pending {
			if err := w.csv.Write(rec); err != nil {
				_ = w.abort()
				return fmt.Errorf("writing report row: %w", err)
			}
		}
		w.csv.Flush()
		if err := w.csv.Error(); err != nil {
			_ = w.abort()
			return fmt.Errorf("writing report: %w", err)
		}
		w.pending = nil
	}
	return w.abort()
}

// write emits one record and flushes it to the file.
func (w *Writer) write(rec []string) error {
	if err := w.csv.Write(rec); err != nil {
		return fmt.Errorf("writing report row: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// abort closes the file and lock without writing anything further. Partial
// output is left on disk.
func (w *Writer) abort() error {
	w.closed = true
	err := w.file.Close()
	releaseLock(w.lock)
	return err
}

// releaseLock unlocks but keeps the lock file. Removing it would let a
// later run lock a new inode while another still holds the old one.
func releaseLock(l *flock.Flock) {
	_ = l.Unlock()
}
