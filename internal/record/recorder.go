package record

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sweeney/geiger-rng/internal/entropy"
)

// Recorder appends values to a .bin file (big-endian, BytesPerValue bytes each)
// and a .csv file (timestamp,number,ones).
type Recorder struct {
	binFile *os.File
	csvFile *os.File
	bin     *bufio.Writer
	csv     *bufio.Writer
	width   int
	BinPath string
	CSVPath string
}

// Create opens a new pair of recording files in dir, creating dir if needed.
func Create(dir string, now time.Time, source string, width int) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create record dir: %w", err)
	}
	binPath, csvPath, err := Paths(dir, now, source, width)
	if err != nil {
		return nil, fmt.Errorf("build file names: %w", err)
	}

	binFile, err := os.OpenFile(binPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open bin file: %w", err)
	}
	csvFile, err := os.OpenFile(csvPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		binFile.Close()
		return nil, fmt.Errorf("open csv file: %w", err)
	}

	return &Recorder{
		binFile: binFile,
		csvFile: csvFile,
		bin:     bufio.NewWriter(binFile),
		csv:     bufio.NewWriter(csvFile),
		width:   width,
		BinPath: binPath,
		CSVPath: csvPath,
	}, nil
}

// Write appends one value to both files and flushes them.
func (r *Recorder) Write(v entropy.Value) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v.Number)
	if _, err := r.bin.Write(buf[8-BytesPerValue(r.width):]); err != nil {
		return fmt.Errorf("write bin: %w", err)
	}
	if err := r.bin.Flush(); err != nil {
		return fmt.Errorf("flush bin: %w", err)
	}

	if _, err := fmt.Fprintf(r.csv, "%s,%d,%d\n", v.Timestamp.Format(csvTimeLayout), v.Number, v.Ones()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	if err := r.csv.Flush(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// Close flushes and closes both files.
func (r *Recorder) Close() error {
	var errs []error
	if err := r.bin.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("flush bin: %w", err))
	}
	if err := r.csv.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("flush csv: %w", err))
	}
	if err := r.binFile.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close bin: %w", err))
	}
	if err := r.csvFile.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close csv: %w", err))
	}
	return errors.Join(errs...)
}
