package main

import (
	"os"

	servecmder "github.com/engramlabs/engram/cmd/engram/serve"
)

func main() {
	cmd := servecmder.NewServeCmd()
	cmd.Use = "engramapi"
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory containing the .engram/ config (default: walk up from cwd)")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
