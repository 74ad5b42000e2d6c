package infra

import (
	"fmt"
)

// ANSI Color Codes
const (
	ColorReset = "\033[0m"
	ColorCyan  = "\033[36m"
)

// PrintBanner displays the startup banner with the bound endpoints.
func PrintBanner(cfg *Config) {
	fmt.Println()
	fmt.Printf("%s###########################################################%s\n", ColorCyan, ColorReset)
	fmt.Printf("%s#                                                         #%s\n", ColorCyan, ColorReset)
	fmt.Printf("%s#              TradePro Market-Data Server                #%s\n", ColorCyan, ColorReset)
	fmt.Printf("%s#                                                         #%s\n", ColorCyan, ColorReset)
	fmt.Printf("%s#   SECURE:  %-44s #%s\n", ColorCyan, cfg.Server.Addr, ColorReset)
	fmt.Printf("%s#   UPDATES: %-44s #%s\n", ColorCyan, cfg.Hub.Addr, ColorReset)
	fmt.Printf("%s#   VERSION: %-44s #%s\n", ColorCyan, cfg.App.Version, ColorReset)
	fmt.Printf("%s#                                                         #%s\n", ColorCyan, ColorReset)
	fmt.Printf("%s###########################################################%s\n", ColorCyan, ColorReset)
	fmt.Println()
}
