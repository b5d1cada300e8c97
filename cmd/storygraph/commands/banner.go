package commands

import (
	"fmt"

	"github.com/teranos/storygraph/logger"
	"github.com/teranos/storygraph/version"
)

// printStartupBanner prints the user-friendly startup message before a run
func printStartupBanner(verbosity int, dbPath string) {
	cyan := "\033[36m"
	green := "\033[32m"
	yellow := "\033[33m"
	blue := "\033[34m"
	bold := "\033[1m"
	reset := "\033[0m"

	versionInfo := version.Get()

	fmt.Printf("\n%s%s", cyan, bold)
	fmt.Printf("   ╔═══════════════════════════════════════════════╗\n")
	fmt.Printf("   ║                                               ║\n")
	fmt.Printf("   ║   ███████ ████████  ██████  ██████  ██    ██  ║\n")
	fmt.Printf("   ║   ██         ██    ██    ██ ██   ██  ██  ██   ║\n")
	fmt.Printf("   ║   ███████    ██    ██    ██ ██████    ████    ║\n")
	fmt.Printf("   ║        ██    ██    ██    ██ ██   ██    ██     ║\n")
	fmt.Printf("   ║   ███████    ██     ██████  ██   ██    ██     ║\n")
	fmt.Printf("   ║                                      graph    ║\n")
	fmt.Printf("   ║                                               ║\n")
	fmt.Printf("   ╚═══════════════════════════════════════════════╝%s\n\n", reset)

	fmt.Printf("%s%s┌─ Storygraph ────────────────────────────────────┐%s\n", green, bold, reset)
	fmt.Printf("%s│%s Version:   %s (commit %s)\n", green, reset, versionInfo.Version, versionInfo.Short())
	fmt.Printf("%s│%s Built:     %s\n", green, reset, versionInfo.BuiltAt)
	fmt.Printf("%s│%s Verbosity: %s\n", green, reset, logger.LevelName(verbosity))
	if dbPath != "" {
		fmt.Printf("%s│%s Database:  %s\n", green, reset, dbPath)
	}
	fmt.Printf("%s└─────────────────────────────────────────────────┘%s\n", green, reset)

	fmt.Printf("\n%s%sGenerating stories — rounds refine the graph until it converges%s\n", yellow, bold, reset)
	fmt.Printf("%sPress Ctrl+C to stop%s\n\n", blue, reset)
}
