package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/ShpetimA/atlassian-cli/internal/config"
)

// runConfigForm asks for the credentials of profile name, starting from p.
func runConfigForm(name string, p config.Profile) (config.Profile, error) {
	required := func(field string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", field)
			}
			return nil
		}
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Atlassian site").
				Description(fmt.Sprintf("Profile %q. Site name, host or URL", name)).
				Placeholder("acme or acme.atlassian.net").
				Value(&p.Domain).
				Validate(required("site")),

			huh.NewInput().
				Title("Email").
				Description("The account the API token belongs to").
				Placeholder("you@example.com").
				Value(&p.Email).
				Validate(func(s string) error {
					if err := required("email")(s); err != nil {
						return err
					}
					return config.ValidateKey("profiles."+name+".email", s)
				}),

			huh.NewInput().
				Title("API token").
				Description("Create one at https://id.atlassian.com/manage-profile/security/api-tokens").
				EchoMode(huh.EchoModePassword).
				Value(&p.APIToken).
				Validate(required("API token")),
		),
	).WithTheme(huh.ThemeDracula())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Fprintln(os.Stderr, "Config init cancelled.")
			os.Exit(0)
		}
		return p, fmt.Errorf("form error: %w", err)
	}
	p.Domain = strings.TrimSpace(p.Domain)
	p.Email = strings.TrimSpace(p.Email)
	p.APIToken = strings.TrimSpace(p.APIToken)
	return p, nil
}
