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
Package banner provides the startup banner display for FlyIO.

OVERVIEW:
=========
Displays an ASCII art banner with version information when
the server starts. Uses ANSI escape codes for colors.

USAGE:
======

	banner.Print()           // Print to stdout
	banner.PrintTo(writer)   // Print to custom writer
	banner.PrintServerWithConfig(cfg)  // Print server banner with configuration
*/
package banner

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"flyio/internal/config"
)

const bannerText = `  _____ _       ___ ___
 |  ___| |_   _|_ _/ _ \
 | |_  | | | | || | | | |
 |  _| | | |_| || | |_| |
 |_|   |_|\__, |___\___/
          |___/`

// ANSI escape codes for terminal text formatting.
const (
	AnsiGreen  = "\033[32m"
	AnsiYellow = "\033[33m"
	AnsiCyan   = "\033[36m"
	AnsiReset  = "\033[0m"
	AnsiBold   = "\033[1m"
	AnsiDim    = "\033[2m"
)

// Version information
const (
	Version   = "1.2.0"
	Copyright = "Copyright (c) 2026 Firefly Software Solutions Inc."
	License   = "Licensed under Apache License 2.0"
)

// GetBanner returns the raw ASCII banner text.
func GetBanner() string {
	return bannerText
}

// GetBannerLines returns the banner as individual lines.
func GetBannerLines() []string {
	return strings.Split(strings.TrimRight(bannerText, "\n"), "\n")
}

// Print displays the startup banner with version and copyright information.
func Print() {
	PrintTo(os.Stdout)
}

// PrintTo writes the banner to the specified writer.
func PrintTo(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, AnsiCyan+AnsiBold)
	for _, line := range GetBannerLines() {
		fmt.Fprintln(w, "  "+line)
	}
	fmt.Fprintln(w, AnsiReset)
	fmt.Fprintln(w, AnsiGreen+AnsiBold+"  FlyIO"+AnsiReset+" "+AnsiDim+"v"+Version+AnsiReset)
	fmt.Fprintln(w, AnsiDim+"  Vectored I/O Service"+AnsiReset)
	fmt.Fprintln(w)
	fmt.Fprintln(w, AnsiDim+"  "+Copyright+AnsiReset)
	fmt.Fprintln(w)
}

// PrintCompact prints a compact version of the banner.
func PrintCompact() {
	fmt.Println(AnsiCyan + AnsiBold + "FlyIO" + AnsiReset + " v" + Version)
}

// PrintServerWithConfig prints the server banner with configuration display.
func PrintServerWithConfig(cfg *config.Config) {
	PrintServerWithConfigTo(os.Stdout, cfg)
}

// PrintServerWithConfigTo writes the server banner with configuration to the
// specified writer.
func PrintServerWithConfigTo(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, AnsiCyan+AnsiBold)
	for _, line := range GetBannerLines() {
		fmt.Fprintln(w, "  "+line)
	}
	fmt.Fprintln(w, AnsiReset)
	fmt.Fprintln(w, AnsiGreen+AnsiBold+"  FlyIO Server"+AnsiReset+" "+AnsiDim+"v"+Version+AnsiReset)
	fmt.Fprintln(w, AnsiDim+"  Vectored I/O Service"+AnsiReset)
	fmt.Fprintln(w)

	printCompactConfig(w, cfg)

	fmt.Fprintln(w, AnsiDim+"  "+Copyright+AnsiReset)
	fmt.Fprintln(w)

	printLogSeparator(w)
}

// PrintLogSeparator prints a visual separator before logs start.
func PrintLogSeparator() {
	printLogSeparator(os.Stdout)
}

func printLogSeparator(w io.Writer) {
	const lineWidth = 78
	arrow := "v"
	text := " LOGS START HERE "
	padding := (lineWidth - len(text) - 4) / 2 // 4 for arrows on each side
	if padding < 0 {
		padding = 0
	}
	line := strings.Repeat("-", padding)
	fmt.Fprintf(w, "  %s%s %s%s%s %s%s%s\n",
		AnsiYellow, arrow+arrow+line,
		AnsiBold, text, AnsiReset+AnsiYellow,
		line+arrow+arrow, AnsiReset, "")
	fmt.Fprintln(w)
}

func printCompactConfig(w io.Writer, cfg *config.Config) {
	const lineWidth = 78

	printSectionHeader(w, "Server", lineWidth)
	printRow(w, fmtKV("Listen", AnsiGreen+cfg.BindAddr+AnsiReset), fmtKV("Log", cfg.LogLevel))
	printRow(w, fmtKV("Data", cfg.DataDir), fmtKV("Buffers", fmt.Sprintf("%d", cfg.RegistryCapacity)))
	printRow(w, fmtKV("MaxBuffer", formatBytes(int64(cfg.MaxBufferBytes))), fmtKV("Deadline", fmt.Sprintf("%ds", cfg.ReadDeadlineSeconds)))

	printSectionHeader(w, "Runtime", lineWidth)
	printRow(w, fmtKV("Go", runtime.Version()), fmtKV("OS/Arch", runtime.GOOS+"/"+runtime.GOARCH))
	fmt.Fprintln(w)
}

func printSectionHeader(w io.Writer, title string, width int) {
	pad := width - len(title) - 6
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintln(w, "  "+AnsiDim+"-- "+AnsiReset+AnsiBold+title+AnsiReset+AnsiDim+" "+strings.Repeat("-", pad)+AnsiReset)
}

func printRow(w io.Writer, cols ...string) {
	fmt.Fprintln(w, "  "+strings.Join(cols, "   "))
}

func fmtKV(key, value string) string {
	return AnsiDim + key + ": " + AnsiReset + value
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%dGB", n>>30)
	case n >= 1<<20:
		return fmt.Sprintf("%dMB", n>>20)
	case n >= 1<<10:
		return fmt.Sprintf("%dKB", n>>10)
	default:
		return fmt.Sprintf("%dB", n)
	}
}
