// Package main is the entry point for the Stylist Chat TUI application.
// It initializes configuration, services, and runs the Bubble Tea program.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/stylist-chat-tui/internal/app"
	"github.com/j-veylop/stylist-chat-tui/internal/config"
	"github.com/j-veylop/stylist-chat-tui/internal/logger"
	"github.com/j-veylop/stylist-chat-tui/internal/services"
	chattab "github.com/j-veylop/stylist-chat-tui/internal/ui/tabs/chat"
	"github.com/j-veylop/stylist-chat-tui/internal/ui/tabs/history"
	"github.com/j-veylop/stylist-chat-tui/internal/ui/tabs/info"
	"github.com/j-veylop/stylist-chat-tui/internal/version"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Handle help flag
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		printUsage()
		os.Exit(0)
	}

	// Run the application
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run contains the main application logic, separated for cleaner error handling.
func run() error {
	// 1. Load configuration from .env files and environment variables
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Route logs to a file; the TUI owns the terminal
	logFile, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err == nil {
		logger.SetOutput(logFile)
		defer func() {
			if closeErr := logFile.Close(); closeErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: error closing log file: %v\n", closeErr)
			}
		}()
	} else {
		logger.SetOutput(nil)
	}

	// 3. Initialize the service manager
	// This starts the snapshot store, history database and usage reconciler
	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	// Ensure cleanup on exit
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	// 4. Create the root Bubble Tea model
	model := app.NewModel(svcManager)

	// 5. Initialize tabs with shared state and services
	state := model.GetState()
	tabs := []app.Tab{
		chattab.New(state, svcManager), // Tab 0: Chat - talk to the stylist
		history.New(state, svcManager), // Tab 1: History - past query attempts
		info.New(state, cfg),           // Tab 2: Info - configuration and app info
	}
	model.SetTabs(tabs)

	// 6. Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// 7. Create and configure the Bubble Tea program
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),       // Use alternate screen buffer (full terminal)
		tea.WithMouseCellMotion(), // Enable mouse support for selection
	)

	// 8. Handle signals in a separate goroutine
	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	// 9. Run the TUI program
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`Stylist Chat TUI - Terminal chat client with usage tracking

Usage:
  sct [flags]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts:
  1-3             Switch between tabs (Chat, History, Info)
  Tab/Shift+Tab   Navigate between tabs
  Enter           Send query (chat input focused)
  Esc             Leave chat input / close help
  r, Ctrl+R       Refresh usage from server
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  STYLIST_API_URL         API base URL (default: http://localhost:8000)
  SNAPSHOT_PATH           Usage snapshot JSON path
  DATABASE_PATH           SQLite history database path
  LOG_PATH                Log file path
  USAGE_QUERY_LIMIT       Queries per window (default: 20)
  USAGE_WINDOW            Window length (default: 5h)
  USAGE_REFRESH_INTERVAL  Usage polling interval (default: 10s)
  REQUEST_TIMEOUT         Status probe timeout (default: 10s)
  QUERY_TIMEOUT           Query request timeout (default: 60s)

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.config/stylist-chat/.env

For more information, visit: https://github.com/j-veylop/stylist-chat-tui`)
}
