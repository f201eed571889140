package main

import (
	"context"
	"os"

	"procscope/internal/app"
)

func main() {
	if app.HasVersionFlag(os.Args[1:]) {
		app.PrintVersion(os.Stdout)
		return
	}

	application, err := app.New(os.Args, os.Stderr)
	if err != nil {
		if app.IsHelpError(err) {
			os.Exit(app.ExitOK)
		}
		os.Exit(app.ExitError)
	}

	os.Exit(application.Run(context.Background(), os.Stdout))
}
