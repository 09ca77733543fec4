// # cmd/pubscan/main.go
package main

import (
	"os"

	"pubscan/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
