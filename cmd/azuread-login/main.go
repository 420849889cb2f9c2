package main

import (
	"context"
	"os"

	"github.com/ccakes/azuread/cmd/azuread-login/commands"
	"github.com/ccakes/azuread/internal/di"
	"github.com/urfave/cli/v2"
)

func main() {
	logger := di.ProvideLogger()
	ctx := logger.WithContext(context.Background())

	app := &cli.App{
		Name:  "azuread-login",
		Usage: "Microsoft Entra ID sign-in demo and endpoint inspector",
		Description: `Companion tool for the azuread provider library.

This tool provides commands for:
  - Running a demo login server against any of the Entra ID authorities
  - Inspecting the OAuth2 endpoints a given authority or tenant resolves to`,
		Commands: []*cli.Command{
			commands.ServeCommand(&logger),
			commands.EndpointsCommand(&logger),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}
