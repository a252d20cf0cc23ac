package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/quatton/aimless/apps/aimless/cmd"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "aimless crashed: %v\n", r)
			if os.Getenv("AIMLESS_DEBUG") != "" {
				debug.PrintStack()
			}
			os.Exit(2)
		}
	}()

	cmd.Execute()
}
