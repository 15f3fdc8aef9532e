package main

import (
	"github.com/IrineSistiana/mosmdns/app"
	_ "github.com/IrineSistiana/mosmdns/app/agent"
)

var (
	version = "dev/unknown"
)

func main() {
	rootCmd := app.RootCmd()
	rootCmd.Version = version
	rootCmd.Execute()
}
