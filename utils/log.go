package utils

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
)

// NewRunLogger opens (or appends to) a JSON run log. Callers own the
// returned file handle and must close it when the run ends.
func NewRunLogger(logPath string) (*slog.Logger, *os.File, error) {
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewJSONHandler(logFile, nil))
	return logger, logFile, nil
}

// CompletedStages replays a run log and returns the set of stage keys
// that finished, so a resumed run can skip them.
func CompletedStages(logPath string) (map[string]struct{}, error) {
	completed := make(map[string]struct{})

	logFile, err := os.Open(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return completed, nil
		}
		return nil, err
	}
	defer logFile.Close()

	scanner := bufio.NewScanner(logFile)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		stage, ok := entry["STAGE"].(string)
		if !ok {
			continue
		}
		status, ok := entry["STATUS"].(string)
		if !ok || status != "COMPLETED" {
			continue
		}
		completed[stage] = struct{}{}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return completed, nil
}
