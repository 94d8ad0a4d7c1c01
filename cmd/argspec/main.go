// # cmd/argspec/main.go
package main

import (
	"argspec/internal/ui/cli"
	"os"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
