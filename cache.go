package main

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/phobologic/rspeclint/internal/config"
	"github.com/phobologic/rspeclint/internal/lint"
)

const cacheHeader = "# rspeclint-cache"

// cacheKey identifies the settings and file set that shaped a cached output.
// Include and Exclude are covered by the file set.
func cacheKey(style config.Style, formatName string, color bool, maxFileSize int, files []lint.File) string {
	return fmt.Sprintf("%s style=%s format=%s color=%t max-file-size=%d files=%s",
		cacheHeader, style, formatName, color, maxFileSize, filesDigest(files))
}

// filesDigest hashes the sorted absolute paths of files.
func filesDigest(files []lint.File) string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Abs
	}
	slices.Sort(paths)

	h := sha256.New()
	for _, p := range paths {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil)[:12])
}

// cacheInputs lists the files whose modification invalidates the cache.
func cacheInputs(files []lint.File, configPath string) []string {
	paths := make([]string, 0, len(files)+1)
	for _, f := range files {
		paths = append(paths, f.Abs)
	}
	if configPath != "" {
		paths = append(paths, configPath)
	}
	return paths
}

// readCache returns the cached output and its offense count when the cache was
// written with key and is newer than every input.
func readCache(cachePath, key string, inputs []string) ([]byte, int, bool) {
	cacheInfo, err := os.Stat(cachePath)
	if err != nil {
		return nil, 0, false
	}
	cacheMtime := cacheInfo.ModTime()

	for _, p := range inputs {
		fi, err := os.Stat(p)
		if err != nil {
			return nil, 0, false
		}
		if !fi.ModTime().Before(cacheMtime) {
			return nil, 0, false
		}
	}

	data, err := os.ReadFile(cachePath)
	if err != nil {
		return nil, 0, false
	}
	header, body, ok := bytes.Cut(data, []byte("\n"))
	if !ok {
		return nil, 0, false
	}
	prefix, count, ok := strings.Cut(string(header), " offenses=")
	if !ok || prefix != key {
		return nil, 0, false
	}
	n, err := strconv.Atoi(count)
	if err != nil || n < 0 {
		return nil, 0, false
	}
	return body, n, true
}

func writeCache(cachePath, key string, offenses int, output []byte) error {
	f, err := os.Create(cachePath)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "%s offenses=%d\n", key, offenses)
	_, _ = w.Write(output)
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
