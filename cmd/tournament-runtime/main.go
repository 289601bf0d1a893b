// Command tournament-runtime drives a single tournament from launch to a
// terminal state and exits with the tournament's termination code.
//
// Usage:
//
//	tournament-runtime --tournament-id 42
//	tournament-runtime migrate
//
// Settings are read from flags, TOURNAMENT_RUNTIME_* environment variables
// and an optional .env file. DATABASE_URL, REDIS_URL, TASK_ID and
// ECS_CONTAINER_METADATA_URI_V4 are also read without the prefix.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/getpup/tournament-runtime/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	code, err := execute(context.Background(), os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

func execute(ctx context.Context, args []string) (int, error) {
	if err := config.LoadDotEnv(); err != nil {
		return 1, err
	}

	v, err := config.NewViper()
	if err != nil {
		return 1, err
	}

	var exitCode int

	root := &cobra.Command{
		Use:           "tournament-runtime",
		Short:         "Drive one tournament through its lifecycle",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			exitCode, err = run(cmd.Context(), cfg)
			return err
		},
	}
	if err := config.RegisterFlags(root, v); err != nil {
		return 1, err
	}

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create the tournament and game tables if they do not exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return migrate(cmd.Context(), cfg)
		},
	})

	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		return 1, err
	}
	return exitCode, nil
}

func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
