package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spectriclabs/spc-data-service/internal/app"
	"github.com/spf13/pflag"
)

func main() {
	if err := app.Run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "sds:", err)
		os.Exit(1)
	}
}
