package store

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// ReadLinkList reads a plain-text link list: one URL per line, blank lines
// and #-comments ignored.
func ReadLinkList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &Error{Path: path, Message: "opening link list", Cause: err}
	}
	defer file.Close()

	var urls []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, &Error{Path: path, Message: "reading link list", Cause: err}
	}
	return urls, nil
}

// MergeLinkLists reads several link lists into one slice, preserving the
// order entries were first seen and dropping duplicates.
func MergeLinkLists(paths []string) ([]string, error) {
	seen := mapset.NewSet[string]()
	var merged []string
	for _, path := range paths {
		urls, err := ReadLinkList(path)
		if err != nil {
			return nil, err
		}
		for _, u := range urls {
			if seen.Add(u) {
				merged = append(merged, u)
			}
		}
	}
	return merged, nil
}

// WriteLinkList writes URLs one per line, replacing the file atomically.
func WriteLinkList(path string, urls []string) error {
	var sb strings.Builder
	for _, u := range urls {
		sb.WriteString(u)
		sb.WriteString("\n")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &Error{Path: path, Message: "creating output directory", Cause: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return &Error{Path: path, Message: "creating temp file", Cause: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(sb.String()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &Error{Path: path, Message: "writing temp file", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &Error{Path: path, Message: "closing temp file", Cause: err}
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &Error{Path: path, Message: "replacing link list", Cause: err}
	}
	return nil
}
