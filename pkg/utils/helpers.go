package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

//InSlice returns true if given string appears in given slice
func InSlice(lookingFor string, slice []string) bool {
	for _, s := range slice {
		if s == lookingFor {
			return true
		}
	}

	return false
}

//ListDir returns a sorted list of files/ directories in given path
func ListDir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("ListDir: Error, got '%w'", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	return names, nil
}

//ResetDir removes given directory with all of it's content and creates it again, empty
func ResetDir(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("ResetDir: Could not remove '%s', got '%w'", path, err)
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("ResetDir: Could not create '%s', got '%w'", path, err)
	}
	return nil
}

//IsImageFile returns true if given file name has one of ImageExtensions (case insensitive)
func IsImageFile(name string) bool {
	return InSlice(strings.ToLower(filepath.Ext(name)), ImageExtensions)
}

//Stem returns file name without directory and extension
func Stem(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

//FrameIndex parses the numeric frame index out of a file name such as '000042.jpg'
func FrameIndex(name string) (int, bool) {
	idx, err := strconv.Atoi(Stem(name))
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

//FrameName formats a frame index the way frames are named on disk, with given extension
func FrameName(index int, ext string) string {
	return fmt.Sprintf("%0*d%s", FrameIndexDigits, index, ext)
}

//TailName joins the last n segments of given path with underscores
func TailName(path string, n int) string {
	parts := strings.Split(filepath.ToSlash(filepath.Clean(path)), "/")
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			clean = append(clean, p)
		}
	}
	if len(clean) > n {
		clean = clean[len(clean)-n:]
	}
	return strings.Join(clean, "_")
}
