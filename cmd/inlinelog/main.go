// # cmd/inlinelog/main.go
package main

import (
	"os"

	"inlinelog/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
