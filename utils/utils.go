package utils

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	SearchTerm    string
	Start         string
	End           string
	FilePattern   string
	QCStatus      string
	OutfilePrefix string
	Reference     string
	OutputDir     string
	DestProject   string
	DestFolder    string
	RunID         string
	Jobs          int
}

func ReadConfig(configPath string) (Config, error) {
	configFile, err := os.Open(configPath)
	if err != nil {
		return Config{}, err
	}
	defer configFile.Close()
	var cfg Config

	scanner := bufio.NewScanner(configFile)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "SearchTerm":
			cfg.SearchTerm = value
		case "Start":
			cfg.Start = value
		case "End":
			cfg.End = value
		case "FilePattern":
			cfg.FilePattern = value
		case "QCStatus":
			cfg.QCStatus = value
		case "OutfilePrefix":
			cfg.OutfilePrefix = value
		case "Reference":
			cfg.Reference = value
		case "OutputDir":
			cfg.OutputDir = value
		case "DestProject":
			cfg.DestProject = value
		case "DestFolder":
			cfg.DestFolder = value
		case "RunID":
			cfg.RunID = value
		case "Jobs":
			jobs, jErr := strconv.Atoi(value)
			if jErr == nil {
				cfg.Jobs = jobs
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return cfg, err
	}

	return cfg, nil
}
