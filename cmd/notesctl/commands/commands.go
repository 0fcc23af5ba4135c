package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/spf13/cobra"
	"github.com/xaionaro-go/notespanel/pkg/buildvars"
	"github.com/xaionaro-go/notespanel/pkg/instance"
	"github.com/xaionaro-go/notespanel/pkg/notespanel"
	"github.com/xaionaro-go/notespanel/pkg/notespanel/config"
	"github.com/xaionaro-go/notespanel/pkg/xpath"
)

var (
	// Access these variables only from a main package:

	Root = &cobra.Command{
		Use:           "notesctl",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			l := logger.FromCtx(ctx).WithLevel(LoggerLevel)
			ctx = logger.CtxWithLogger(ctx, l)
			cmd.SetContext(ctx)
			logger.Debugf(ctx, "log-level: %v", LoggerLevel)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			logger.Debug(ctx, "end")
		},
	}

	Popup = &cobra.Command{
		Use:   "popup [command]",
		Short: "toggle the note windows of the running notespanel instance",
		Args:  cobra.MaximumNArgs(1),
		RunE:  popup,
	}

	Status = &cobra.Command{
		Use:   "status",
		Short: "show which process owns the coordination channel",
		Args:  cobra.ExactArgs(0),
		RunE:  status,
	}

	GenerateConfig = &cobra.Command{
		Use:   "generate-config",
		Short: "write the default config to the config path",
		Args:  cobra.ExactArgs(0),
		RunE:  generateConfig,
	}

	Version = &cobra.Command{
		Use:   "version",
		Short: "print the build info",
		Args:  cobra.ExactArgs(0),
		RunE:  version,
	}

	LoggerLevel = logger.LevelWarning
	Backend     = config.BackendTypeUndefined
)

func init() {
	Root.PersistentFlags().Var(&LoggerLevel, "log-level", "")
	Root.PersistentFlags().String("config-path", "~/.notespanel.yaml", "the path to the config file")
	Root.PersistentFlags().Var(&Backend, "backend", "override the backend from the config: auto, x11 or sockets")
	Root.PersistentFlags().String("display", "", "override the X display (by default $DISPLAY is used)")

	Root.AddCommand(Popup)
	Root.AddCommand(Status)
	Root.AddCommand(GenerateConfig)
	Root.AddCommand(Version)
}

func getConfigPath(cmd *cobra.Command) (string, error) {
	cfgPathRaw, err := cmd.Flags().GetString("config-path")
	if err != nil {
		return "", err
	}
	return xpath.Expand(cfgPathRaw)
}

// readConfig does not create the config file if it does not exist: notesctl
// only talks to the instance, it does not own the configuration.
func readConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.DefaultConfig()
	cfgPath, err := getConfigPath(cmd)
	if err != nil {
		return cfg, err
	}
	err = config.ReadConfigFromPath(cfgPath, &cfg)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		logger.Debugf(cmd.Context(), "config '%s' does not exist, using the defaults", cfgPath)
	default:
		return cfg, err
	}

	if Backend != config.BackendTypeUndefined {
		cfg.Backend = Backend
	}
	display, err := cmd.Flags().GetString("display")
	if err != nil {
		return cfg, err
	}
	if display != "" {
		cfg.Display = display
	}
	return cfg, nil
}

func withBackend(
	cmd *cobra.Command,
	fn func(ctx context.Context, cfg config.Config, backend instance.Backend, ordinal int) error,
) error {
	ctx := cmd.Context()
	cfg, err := readConfig(cmd)
	if err != nil {
		return err
	}
	backend, ordinal, closer, err := notespanel.NewBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("unable to initialize the backend: %w", err)
	}
	defer closer.Close()
	return fn(ctx, cfg, backend, ordinal)
}

func popup(cmd *cobra.Command, args []string) error {
	return withBackend(cmd, func(
		ctx context.Context,
		cfg config.Config,
		backend instance.Backend,
		ordinal int,
	) error {
		command := cfg.Command
		if len(args) > 0 {
			command = args[0]
		}
		err := instance.Send(ctx, backend, cfg.SelectionPrefix, ordinal, command)
		if errors.Is(err, instance.ErrNotOwned) {
			return fmt.Errorf("notespanel is not running on display %d", ordinal)
		}
		return err
	})
}

func status(cmd *cobra.Command, args []string) error {
	return withBackend(cmd, func(
		ctx context.Context,
		cfg config.Config,
		backend instance.Backend,
		ordinal int,
	) error {
		name := instance.NewChannelName(cfg.SelectionPrefix, ordinal)
		owner, err := backend.Owner(ctx, name)
		if err != nil {
			return fmt.Errorf("unable to get the owner of '%s': %w", name, err)
		}
		return printStatus(cmd.OutOrStdout(), name, owner)
	})
}

func printStatus(
	out io.Writer,
	name instance.ChannelName,
	owner *instance.Owner,
) error {
	if owner == nil {
		_, err := fmt.Fprintf(out, "%s: not owned\n", name)
		return err
	}
	_, err := fmt.Fprintf(out, "%s: owned by %s", name, owner.ID)
	if err != nil {
		return err
	}
	if owner.PID != 0 {
		_, err = fmt.Fprintf(out, " (pid %d %s)", owner.PID, owner.ProcessName)
		if err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(out)
	return err
}

func generateConfig(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfgPath, err := getConfigPath(cmd)
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("file '%s' already exists", cfgPath)
	}
	return config.WriteConfigToPath(ctx, cfgPath, config.DefaultConfig())
}

func version(cmd *cobra.Command, args []string) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", " ")
	return enc.Encode(buildvars.GetInfo())
}
