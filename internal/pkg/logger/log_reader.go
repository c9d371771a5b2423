package logger

import (
	"bufio"
	"bytes"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Log Reading for the admin system-log viewer

type LogEntry struct {
	Id        string                 `json:"id"`
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Module    string                 `json:"module,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

const (
	maxScannedEntries = 10000
	maxLineSize       = 1024 * 1024
)

// readLine returns the next line without its terminator. Lines longer than
// max are consumed whole and reported as tooLong with no content.
func readLine(r *bufio.Reader, max int) (line []byte, tooLong bool, err error) {
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong && len(line)+len(chunk) <= max {
			line = append(line, chunk...)
		} else {
			tooLong, line = true, nil
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return bytes.TrimRight(line, "\r\n"), tooLong, err
	}
}

func parseEntry(line []byte, level string) (LogEntry, bool) {
	var entry LogEntry
	if len(line) == 0 || json.Unmarshal(line, &entry) != nil {
		return entry, false
	}
	if level != "" && !strings.EqualFold(entry.Level, level) {
		return entry, false
	}
	if entry.Id == "" {
		entry.Id = fmt.Sprintf("%x", md5.Sum(line))
	}
	return entry, true
}

// readEntries parses the active log file. Rotated (gzipped) backups are not
// read.
func (l *ZapLogger) readEntries(level string) ([]LogEntry, error) {
	if l.filePath == "" {
		return []LogEntry{}, nil
	}
	file, err := os.Open(l.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []LogEntry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	var entries []LogEntry
	reader := bufio.NewReaderSize(file, 64*1024)

	for {
		line, tooLong, readErr := readLine(reader, maxLineSize)
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, readErr
		}
		if entry, ok := parseEntry(line, level); ok && !tooLong {
			entries = append(entries, entry)
			if len(entries) > maxScannedEntries {
				entries = entries[1:]
			}
		}
		if readErr != nil {
			break
		}
	}

	// newest first
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

func (l *ZapLogger) GetLogs(level string, limit, offset int) ([]LogEntry, error) {
	entries, err := l.readEntries(level)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(entries) {
		return []LogEntry{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(entries) {
		end = len(entries)
	}
	return entries[offset:end], nil
}

// GetLogById returns nil, nil when the id is unknown.
func (l *ZapLogger) GetLogById(id string) (*LogEntry, error) {
	entries, err := l.readEntries("")
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Id == id {
			return &entries[i], nil
		}
	}
	return nil, nil
}
