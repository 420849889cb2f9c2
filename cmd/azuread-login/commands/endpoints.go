package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ccakes/azuread"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

// EndpointsCommand returns the endpoints command for inspecting the OAuth2
// endpoints an authority or tenant resolves to.
func EndpointsCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:    "endpoints",
		Aliases: []string{"e"},
		Usage:   "Print the OAuth2 endpoints for an authority or tenant",
		Description: `Resolve and print the authorization, token, issuer, and logout URLs.

Examples:
  # Shared authorities
  azuread-login endpoints --authority common
  azuread-login endpoints --authority consumers --json

  # A specific tenant, by GUID or verified domain
  azuread-login endpoints --authority tenant --tenant contoso.onmicrosoft.com`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "authority",
				Aliases: []string{"a"},
				Usage:   "Authority: common, organizations, consumers, or tenant",
				Value:   "common",
			},
			&cli.StringFlag{
				Name:    "tenant",
				Aliases: []string{"t"},
				Usage:   "Tenant GUID or verified domain (required with --authority tenant)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output as JSON",
			},
		},
		Action: func(c *cli.Context) error {
			provider, err := resolveProvider(c.String("authority"), c.String("tenant"))
			if err != nil {
				return err
			}

			if c.Bool("json") {
				out := map[string]string{
					"authority":  provider.Name(),
					"auth_url":   provider.AuthURL().String(),
					"token_url":  provider.TokenURL().String(),
					"issuer_url": provider.IssuerURL(),
					"logout_url": provider.LogoutURL(""),
				}
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(out)
			}

			fmt.Printf("Authority:  %s\n", provider.Name())
			fmt.Printf("Authorize:  %s\n", provider.AuthURL())
			fmt.Printf("Token:      %s\n", provider.TokenURL())
			fmt.Printf("Issuer:     %s\n", provider.IssuerURL())
			fmt.Printf("Logout:     %s\n", provider.LogoutURL(""))
			return nil
		},
	}
}

func resolveProvider(authority, tenant string) (azuread.Provider, error) {
	switch authority {
	case "common":
		return azuread.Common, nil
	case "organizations":
		return azuread.Organizations, nil
	case "consumers":
		return azuread.Consumers, nil
	case "tenant":
		if tenant == "" {
			return nil, fmt.Errorf("--tenant is required with --authority tenant")
		}
		t, err := azuread.NewTenant(tenant)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unsupported authority %q", authority)
	}
}
