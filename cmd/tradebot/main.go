// Trading bot CLI
// Demo trading bot that authenticates to the API with wallet-signed requests.
package main

import (
	"os"

	"github.com/openkitx403/openkit403-go/cmd/tradebot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
