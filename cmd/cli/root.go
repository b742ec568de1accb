package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/and161185/libdesk/internal/migrate"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "lib",
		Short:         "Library desk client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations["offline"] == "true" {
				return nil
			}
			return a.setup(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/libdesk/config.yaml)")
	pf.StringVar(&a.flags.apiURL, "api", "", "backend base URL")
	pf.StringVar(&a.flags.profile, "profile", "", "session profile")
	pf.StringVar(&a.flags.driver, "store", "", "session store: file, redis or postgres")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level")
	pf.StringVar(&a.flags.caCert, "cacert", "", "CA certificate (PEM) for the backend")
	pf.BoolVar(&a.flags.insecure, "insecure", false, "skip TLS verification (dev)")
	pf.BoolVar(&a.flags.json, "json", false, "print JSON instead of tables")

	root.AddCommand(
		versionCmd(a),
		loginCmd(a),
		logoutCmd(a),
		whoamiCmd(a),
		verifyCmd(a),
		refreshCmd(a),
		resetPasswordCmd(a),
		passwdCmd(a),
		bookCmd(a),
		userCmd(a),
		borrowCmd(a),
		loanCmd(a),
		dashboardCmd(a),
		watchCmd(a),
		migrateCmd(a),
	)
	return root
}

func versionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the client version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"offline": "true"},
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(a.out, "lib %s (%s)\n", version, buildDate)
		},
	}
}

func migrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the postgres session store schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn := a.cfg.Store.PostgresDSN
			if dsn == "" {
				return fmt.Errorf("no postgres_dsn configured")
			}
			if err := migrate.Up(cmd.Context(), dsn); err != nil {
				return err
			}
			v, err := migrate.Status(cmd.Context(), dsn)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "session store schema at version %d\n", v)
			return nil
		},
	}
}
