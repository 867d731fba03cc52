/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
FlyIO Server - Main Entry Point.

USAGE:
======

	flyiod [options]

OPTIONS:
========

	-config string    Path to configuration file (JSON format)
	-human-readable   Use human-readable log format instead of JSON
	-quiet            Skip banner and config display, output logs only
	-version          Show version information
	-help             Show help message

ENVIRONMENT VARIABLES:
======================

	FLYIO_BIND_ADDR   Server bind address (default: :9611)
	FLYIO_DATA_DIR    Data directory path
	FLYIO_LOG_LEVEL   Log level: debug, info, warn, error

STARTUP SEQUENCE:
=================
1. Parse command line flags and config file
2. Initialize logging
3. Start TCP server
4. Wait for shutdown signal
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"flyio/internal/banner"
	"flyio/internal/config"
	"flyio/internal/logging"
	"flyio/internal/server"
	"flyio/internal/vio"
)

func printHelp() {
	banner.Print()
	fmt.Println()
	fmt.Println("\033[1;36mUsage:\033[0m")
	fmt.Println("  flyiod [options]")
	fmt.Println()
	fmt.Println("\033[1;36mOptions:\033[0m")
	fmt.Println("  -config string    Path to configuration file (JSON format)")
	fmt.Println("  -human-readable   Use human-readable log format instead of JSON")
	fmt.Println("  -quiet            Skip banner and config display, output logs only")
	fmt.Println("  -version          Show version information")
	fmt.Println("  -help, -h         Show this help message")
	fmt.Println()
	fmt.Println("\033[1;36mEnvironment Variables:\033[0m")
	fmt.Println("  FLYIO_BIND_ADDR          Server bind address (default: :9611)")
	fmt.Println("  FLYIO_DATA_DIR           Data directory path")
	fmt.Println("  FLYIO_LOG_LEVEL          Log level: debug, info, warn, error")
	fmt.Println("  FLYIO_LOG_JSON           Enable JSON log output (default: true)")
	fmt.Println("  FLYIO_REGISTRY_CAPACITY  Max live buffer handles per connection")
	fmt.Println("  FLYIO_MAX_BUFFER_BYTES   Max size of a single buffer allocation")
	fmt.Println()
	fmt.Println("\033[1;36mExamples:\033[0m")
	fmt.Println("  # Start with default settings (JSON logs)")
	fmt.Println("  flyiod")
	fmt.Println()
	fmt.Println("  # Start with human-readable logs for development")
	fmt.Println("  flyiod -human-readable")
	fmt.Println()
	fmt.Println("  # Start with custom config file")
	fmt.Println("  flyiod -config /etc/flyio/flyio.json")
	fmt.Println()
}

func main() {
	// Custom flag handling for help
	for _, arg := range os.Args[1:] {
		if arg == "-h" || arg == "--help" || arg == "-help" || arg == "help" {
			printHelp()
			return
		}
	}

	configPath := flag.String("config", "", "Path to configuration file")
	humanReadable := flag.Bool("human-readable", false, "Use human-readable log format instead of JSON")
	quietMode := flag.Bool("quiet", false, "Skip banner and config display, output logs only")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Usage = printHelp
	flag.Parse()

	if *showVersion {
		banner.Print()
		return
	}

	// Load configuration first (before banner, so we can display it)
	cfgMgr := config.Global()
	if *configPath != "" {
		if err := cfgMgr.LoadFromFile(*configPath); err != nil {
			fmt.Printf("Error loading config file: %v\n", err)
			os.Exit(1)
		}
	}
	cfgMgr.LoadFromEnv()
	cfg := cfgMgr.Get()

	if *humanReadable {
		cfg.LogJSON = false
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if !*quietMode {
		banner.PrintServerWithConfig(cfg)
	}

	logging.SetGlobalLevel(logging.ParseLevel(cfg.LogLevel))
	logging.SetJSONMode(cfg.LogJSON)
	logger := logging.NewLogger("main")

	logger.Info("Starting FlyIO", "version", banner.Version, "addr", cfg.BindAddr)

	if !vio.Supported() {
		logger.Warn("Vectored I/O syscalls not supported on this platform; I/O operations will fail")
	}

	srv := server.New(cfg)
	if err := srv.Start(); err != nil {
		logger.Error("Failed to start server", "error", err)
		os.Exit(1)
	}

	logger.Info("FlyIO server started", "addr", cfg.BindAddr, "data_dir", cfg.DataDir)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("Shutdown signal received", "signal", sig.String())
	if err := srv.Stop(); err != nil {
		logger.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("FlyIO server stopped")
}
