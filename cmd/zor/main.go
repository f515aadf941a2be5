package main

import (
	"fmt"
	"os"

	"github.com/soyeahso/zor/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "zor:", err)
		os.Exit(1)
	}
}
