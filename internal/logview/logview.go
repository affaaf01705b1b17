// Package logview exposes the service's JSON log file to the admin surface:
// tailing the most recent entries and clearing the file with a compressed
// archive left behind.
package logview

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/berryhill/draftfly-wp/internal/util/compression"
)

type Viewer struct {
	path string
	comp compression.Compressor
}

func New(path string) *Viewer {
	return &Viewer{path: path, comp: compression.Zstd{}}
}

// Tail returns up to n log lines, oldest first, newest last. A non-empty
// level keeps only entries logged at exactly that level. Lines that are not
// JSON objects are skipped.
func (v *Viewer) Tail(n int, level string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(v.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []json.RawMessage{}, nil
		}
		return nil, err
	}

	var entries []json.RawMessage
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var probe struct {
			Level string `json:"level"`
		}
		if err := json.Unmarshal([]byte(line), &probe); err != nil {
			continue
		}
		if level != "" && probe.Level != level {
			continue
		}
		entries = append(entries, json.RawMessage(line))
	}

	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	if entries == nil {
		entries = []json.RawMessage{}
	}
	return entries, nil
}

// Clear truncates the log file, writing its previous contents next to it as
// a zstd archive first. Returns the archive path, empty when there was
// nothing to archive.
func (v *Viewer) Clear() (string, error) {
	data, err := os.ReadFile(v.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	if len(data) == 0 {
		return "", nil
	}

	compressed, err := v.comp.Compress(data)
	if err != nil {
		return "", fmt.Errorf("compress log archive: %w", err)
	}

	archivePath := fmt.Sprintf("%s.%s.zst", v.path, time.Now().UTC().Format("20060102T150405Z"))
	if err := os.WriteFile(archivePath, compressed, 0644); err != nil {
		return "", fmt.Errorf("write log archive: %w", err)
	}

	if err := os.Truncate(v.path, 0); err != nil {
		return "", err
	}
	return archivePath, nil
}
