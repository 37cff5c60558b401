package testscores

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/shirlenelss/thomas-cup-kafka/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "test_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the score load test tool.
func ShowHelp() {
	os.Stdout.WriteString(`Match Score Load Test Tool
==========================

A concurrent tool for exercising the match score pipeline end to end:
it simulates best-of-three badminton matches rally by rally, submits
every score through the HTTP API, and verifies the persisted outcome
of each game.

Usage:
  go run cmd/test-scores/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -matches int
        Number of matches to simulate (default 100)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Log file for test output (default: test_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run cmd/test-scores/main.go

  # Test with custom parameters
  go run cmd/test-scores/main.go -matches 1000 -workers 16 -url http://localhost:9090

  # Test with verbose output
  go run cmd/test-scores/main.go -verbose -matches 50
`)
}
