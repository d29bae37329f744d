// Command cachectl inspects and edits entries written by cacheaspect.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/unkn0wn-root/cacheaspect/internal/cli"
)

func main() {
	app := cli.New()

	if err := app.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
