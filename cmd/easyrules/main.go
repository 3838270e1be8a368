package main

import (
	"os"

	"github.com/solatis/easyrules/cmd/easyrules/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(int(cmd.ExitCodeOf(err)))
	}
}
