package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/vanta/internal/api"
	"github.com/nhle/vanta/internal/model"
)

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with an email address",
	Long: `Exchanges an email address for an identity and stores it in the
system keyring. The interactive interface signs in the same way.

Example:
  vanta login --email me@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, err := api.ValidateEmail(loginEmail)
		if err != nil {
			return err
		}
		svc, err := newServices()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		sess, err := svc.session.SignIn(ctx, email)
		if err != nil {
			return fmt.Errorf("signing in: %s", api.UserMessage(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", sess.Email, sess.UserID)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		if err := svc.session.SignOut(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		if !svc.session.SignedIn() {
			fmt.Fprintln(cmd.OutOrStdout(), "Not signed in. Run `vanta login --email you@example.com`.")
			return nil
		}
		sess := svc.session.Current()
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", sess.Email, sess.UserID)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the API is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := api.NewClient(cfg.API.BaseURL, api.WithLogger(logger))
		ctx, cancel := commandContext(cmd)
		defer cancel()

		h, err := client.Health(ctx)
		if err != nil {
			return fmt.Errorf("%s: %s", cfg.API.BaseURL, api.UserMessage(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", cfg.API.BaseURL, h.Status)
		return nil
	},
}

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to the config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exists(configPath) && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
		}
		if err := model.SaveConfig(configPath, cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configPath)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Email address to sign in with")
	_ = loginCmd.MarkFlagRequired("email")

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
}
