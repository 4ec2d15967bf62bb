package main

import (
	"context"
	"fmt"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/starford/noteagator/internal/clip"
)

// version is set at build time.
var version = "dev"

func main() {
	cmd := newApp(deps{
		stdout: os.Stdout,
		clip:   clip.System{},
		now:    time.Now,
	})

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
