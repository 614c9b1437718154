// Package cmd provides the entrypoint for the ncm-webhook-relay cli.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	awsctl "github.com/isometry/ncm-webhook-relay/internal/controllers/aws"
	"github.com/isometry/ncm-webhook-relay/internal/config"
	"github.com/isometry/ncm-webhook-relay/internal/helpers"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configFilePath string
	logger         = helpers.NewNoopLogger()

	// awsControllerOptions are appended to the options of every AWS controller created by the cli.
	awsControllerOptions []awsctl.Option
)

type boundEnvVar[T argType] struct {
	Name, Description string
	Env, Short        *string
	Hidden            bool
	// Count registers an int as a repeatable counter flag (-vvv).
	Count bool
}

// New returns the root command for the ncm-webhook-relay.
func New() *cobra.Command {
	// Flag defaults are taken from the configuration defaults.
	if err := config.SetDefaults(); err != nil {
		panic(err)
	}

	cmd := &cobra.Command{
		Use:          "ncm-webhook-relay",
		Short:        "Relay NCM courier webhooks as order status change events",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfiguration(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch config.Global.Mode {
			case config.ModeService:
				return runService(cmd)
			case config.ModeLambdaHTTP:
				return runLambdaHTTP(cmd)
			default:
				return fmt.Errorf("invalid mode: %s", config.Global.Mode)
			}
		},
	}

	// Root command flags
	cmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", "config.yaml", "[CONFIG_FILE] path to the configuration file")
	_ = viper.BindPFlag("config", cmd.PersistentFlags().Lookup("config"))
	_ = viper.BindEnv("config", "CONFIG_FILE")

	// Dynamic flags
	setupDynamicFlags(cmd)

	// Subcommands
	cmd.AddCommand(
		cmdLambda(),
		cmdService(),
	)

	return cmd
}

func setupDynamicFlags(cmd *cobra.Command) {
	viper.SetEnvKeyReplacer(replacer)

	bindEnvMap(cmd, envMapString())
	bindEnvMap(cmd, envMapBool())
	bindEnvMap(cmd, envMapInt())
	bindEnvMap(cmd, envMapInt64())
	bindEnvMap(cmd, envMapDuration())
	bindEnvMap(cmd, envMapStringSlice())
	bindEnvMap(cmd, svcEnvMapString())
	bindEnvMap(cmd, svcEnvMapDuration())
	bindEnvMap(cmd, lambdaEnvMapString())
}

// loadConfiguration resolves the configuration in order of increasing precedence:
// defaults, configuration file, SSM overlay, environment, flags.
func loadConfiguration(cmd *cobra.Command) error {
	flags := cmd.Flags()
	snapshot := snapshotFlags(flags)

	if err := config.SetDefaults(); err != nil {
		return errors.Wrap(err, "failed to apply configuration defaults")
	}
	if err := config.LoadFromFile(viper.GetString("config")); err != nil {
		return err
	}
	if err := applyOverrides(flags, snapshot); err != nil {
		return err
	}
	initLogger()

	if parameter := config.SSM.Parameter; parameter != "" {
		if err := loadSSMOverlay(cmd.Context(), parameter); err != nil {
			return err
		}
		if err := applyOverrides(flags, snapshot); err != nil {
			return err
		}
		initLogger()
	}
	return nil
}

func initLogger() {
	config.Global.Mode = strings.TrimSpace(config.Global.Mode)
	logger = helpers.NewLogger(os.Stdout, config.Global.Logging.Verbosity, config.Global.Logging.CallerTrace).
		With("mode", config.Global.Mode)
}

func loadSSMOverlay(ctx context.Context, parameter string) error {
	logger.Debug("loading configuration overlay from SSM...", slog.String("parameter", parameter))
	ctl, err := newAWSController(ctx)
	if err != nil {
		return err
	}
	content, err := ctl.GetParameter(ctx, parameter)
	if err != nil {
		return errors.Wrap(err, "failed to load configuration overlay")
	}
	if err = config.LoadFromYAML([]byte(content)); err != nil {
		return errors.Wrapf(err, "SSM parameter %s", parameter)
	}
	return nil
}

func newAWSController(ctx context.Context) (*awsctl.Controller, error) {
	opts := append([]awsctl.Option{
		awsctl.WithContext(ctx),
		awsctl.WithLogger(logger.With("component", "aws")),
	}, awsControllerOptions...)
	return awsctl.NewController(opts...)
}
