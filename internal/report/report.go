// Package report turns a recording into a spreadsheet with a cumulative z-score
// of the one-bit counts, to eyeball bias in a run.
package report

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/bits"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sweeney/geiger-rng/internal/record"
)

// Row is one recorded value plus its running statistics.
type Row struct {
	Label          string
	Number         uint64
	Ones           int
	CumulativeMean float64
	ZScore         float64
}

// ReadCSV reads timestamp,number,ones rows written by record.Recorder.
func ReadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var rows []Row
	for line := 1; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) < 3 {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimSpace(rec[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid number %q: %w", line, rec[1], err)
		}
		ones, err := strconv.Atoi(strings.TrimSpace(rec[2]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid ones %q: %w", line, rec[2], err)
		}
		rows = append(rows, Row{Label: strings.TrimSpace(rec[0]), Number: n, Ones: ones})
	}
	return rows, nil
}

// ReadBin reads big-endian values of the given width. A trailing partial value is ignored.
func ReadBin(path string, width int) ([]Row, error) {
	size := record.BytesPerValue(width)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	buf := make([]byte, size)
	var rows []Row
	for i := 1; ; i++ {
		if _, err := io.ReadFull(reader, buf); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return nil, err
		}
		var n uint64
		for _, b := range buf {
			n = n<<8 | uint64(b)
		}
		rows = append(rows, Row{Label: strconv.Itoa(i), Number: n, Ones: bits.OnesCount64(n)})
	}
	return rows, nil
}

// Analyze fills in the cumulative mean of ones and its z-score against an
// unbiased source: mean width/2, standard deviation sqrt(width/4).
func Analyze(rows []Row, width int) []Row {
	expectedMean := 0.5 * float64(width)
	expectedStdDev := math.Sqrt(float64(width) * 0.25)
	if expectedStdDev == 0 {
		return rows
	}
	sum := 0
	for i := range rows {
		sum += rows[i].Ones
		n := float64(i + 1)
		cumMean := float64(sum) / n
		rows[i].CumulativeMean = cumMean
		rows[i].ZScore = (cumMean - expectedMean) / (expectedStdDev / math.Sqrt(n))
	}
	return rows
}

// Run reads a .csv or .bin recording, analyzes it and writes a .xlsx next to it.
// It returns the path of the workbook.
func Run(path string) (string, error) {
	width, err := record.WidthFromName(path)
	if err != nil {
		return "", err
	}

	var rows []Row
	firstHeader := "time"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = ReadCSV(path)
	case ".bin":
		rows, err = ReadBin(path, width)
		firstHeader = "sample"
	default:
		return "", fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	out := strings.TrimSuffix(path, filepath.Ext(path)) + ".xlsx"
	if err := WriteXLSX(Analyze(rows, width), out, filepath.Base(path), firstHeader, width); err != nil {
		return "", err
	}
	return out, nil
}
