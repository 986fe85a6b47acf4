// Command confscope loads a directory of configuration fragments and
// resolves the composed configuration for a consumer.
package main

import (
	"os"

	"github.com/spf13/viper"
)

// Build information injected via ldflags at build time.
var version = "dev"

func main() {
	root := newRootCmd(viper.New())
	root.Version = version
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
