// Package record writes completed values to .bin and .csv files for offline analysis.
package record

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

// stampLayout is the timestamp prefix of recording file names.
const stampLayout = "20060102T150405"

// csvTimeLayout is the timestamp written on each csv row.
const csvTimeLayout = "20060102T15:04:05.000000"

var widthPattern = regexp.MustCompile(`_w(\d+)(?:\.|$)`)

// BaseName builds the recording file name without extension:
//
//	YYYYMMDDTHHMMSS_{source}_w{width}
func BaseName(now time.Time, source string, width int) (string, error) {
	if source == "" {
		return "", errors.New("source must not be empty")
	}
	if width <= 0 {
		return "", errors.New("width must be > 0")
	}
	return fmt.Sprintf("%s_%s_w%d", now.Format(stampLayout), source, width), nil
}

// Paths returns the .bin and .csv paths inside dir.
func Paths(dir string, now time.Time, source string, width int) (binPath, csvPath string, err error) {
	base, err := BaseName(now, source, width)
	if err != nil {
		return "", "", err
	}
	return filepath.Join(dir, base+".bin"), filepath.Join(dir, base+".csv"), nil
}

// WidthFromName extracts the value width encoded in a recording file name.
func WidthFromName(path string) (int, error) {
	m := widthPattern.FindStringSubmatch(filepath.Base(path))
	if len(m) < 2 {
		return 0, fmt.Errorf("width not found in file name: %s", filepath.Base(path))
	}
	return strconv.Atoi(m[1])
}

// BytesPerValue is the number of bytes one value occupies in a .bin file.
func BytesPerValue(width int) int {
	return (width + 7) / 8
}
