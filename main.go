package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/tmaxmax/route/internal/cli"
)

func main() {
	c, err := cli.New(os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			if exitErr.Message != "" {
				fmt.Fprintln(os.Stderr, exitErr.Message)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitUsage)
	}

	os.Exit(c.Run())
}
