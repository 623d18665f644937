// @title           tKey Wallet API
// @version         1.0
// @description     Threshold key login flow and wallet operations.
// @host            localhost:8080
// @BasePath        /
package main

import (
	"os"

	"github.com/AlexZinkM/tkey-wallet/cmd/tkeyd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
