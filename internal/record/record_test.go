package record

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/geiger-rng/internal/entropy"
)

var t0 = time.Date(2026, 3, 4, 5, 6, 7, 123456000, time.UTC)

func TestBaseName(t *testing.T) {
	got, err := BaseName(t0, "gpio", 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "20260304T050607_gpio_w8" {
		t.Errorf("got %q", got)
	}

	if _, err := BaseName(t0, "", 8); err == nil {
		t.Error("expected error for empty source")
	}
	if _, err := BaseName(t0, "gpio", 0); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestWidthFromName(t *testing.T) {
	tests := []struct {
		path    string
		want    int
		wantErr bool
	}{
		{"data/20260304T050607_gpio_w8.csv", 8, false},
		{"/tmp/20260304T050607_serial_w16.bin", 16, false},
		{"20260304T050607_synthetic_w64", 64, false},
		{"values.csv", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := WidthFromName(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBytesPerValue(t *testing.T) {
	for width, want := range map[int]int{1: 1, 8: 1, 9: 2, 16: 2, 64: 8} {
		if got := BytesPerValue(width); got != want {
			t.Errorf("width %d: got %d, want %d", width, got, want)
		}
	}
}

func TestRecorderWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	r, err := Create(dir, t0, "synthetic", 12)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	values := []entropy.Value{
		{Timestamp: t0, Width: 12, Number: 0xABC},
		{Timestamp: t0.Add(time.Second), Width: 12, Number: 1},
	}
	for _, v := range values {
		if err := r.Write(v); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	bin, err := os.ReadFile(r.BinPath)
	if err != nil {
		t.Fatalf("read bin: %v", err)
	}
	want := []byte{0x0A, 0xBC, 0x00, 0x01}
	if string(bin) != string(want) {
		t.Errorf("bin: got % x, want % x", bin, want)
	}

	csv, err := os.ReadFile(r.CSVPath)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(csv)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 csv lines, got %d", len(lines))
	}
	if lines[0] != "20260304T05:06:07.123456,2748,7" {
		t.Errorf("csv line 0: got %q", lines[0])
	}

	if filepath.Base(r.CSVPath) != "20260304T050607_synthetic_w12.csv" {
		t.Errorf("csv name: got %q", filepath.Base(r.CSVPath))
	}
}

func TestRecorderCloseKeepsErrorChain(t *testing.T) {
	r, err := Create(t.TempDir(), t0, "synthetic", 8)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}

	err = r.Close()
	if err == nil {
		t.Fatal("expected error closing twice")
	}
	if !errors.Is(err, os.ErrClosed) {
		t.Errorf("error %v does not wrap os.ErrClosed", err)
	}
	for _, want := range []string{"close bin", "close csv"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}
