package cmd

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var replacer = strings.NewReplacer(".", "_", "-", "_")

type argType interface {
	string | bool | int | int64 | time.Duration | []string
}

func envName[T argType](cfg boundEnvVar[T]) string {
	if cfg.Env != nil {
		return *cfg.Env
	}
	return strings.ToUpper(replacer.Replace(cfg.Name))
}

// bindEnvMap registers a persistent flag per entry, defaulting to the current value of the bound variable.
// Environment variables are not read here: they are applied by applyOverrides once the configuration
// sources have been loaded.
func bindEnvMap[T argType](cmd *cobra.Command, m map[*T]boundEnvVar[T]) {
	for v, cfg := range m {
		desc := fmt.Sprintf("[%s] %s", envName(cfg), cfg.Description)
		short := ""
		if cfg.Short != nil {
			short = *cfg.Short
		}

		flags := cmd.PersistentFlags()
		switch vt := any(v).(type) {
		case *string:
			flags.StringVarP(vt, cfg.Name, short, *vt, desc)
		case *bool:
			flags.BoolVarP(vt, cfg.Name, short, *vt, desc)
		case *int:
			if cfg.Count {
				def := *vt
				flags.CountVarP(vt, cfg.Name, short, desc)
				_ = flags.Lookup(cfg.Name).Value.Set(strconv.Itoa(def))
			} else {
				flags.IntVarP(vt, cfg.Name, short, *vt, desc)
			}
		case *int64:
			flags.Int64VarP(vt, cfg.Name, short, *vt, desc)
		case *time.Duration:
			flags.DurationVarP(vt, cfg.Name, short, *vt, desc)
		case *[]string:
			flags.StringSliceVarP(vt, cfg.Name, short, *vt, desc)
		default:
			log.Panicf("command-args parsing error: unhandled default case for type %T", vt)
		}

		_ = viper.BindPFlag(cfg.Name, flags.Lookup(cfg.Name))
		_ = viper.BindEnv(cfg.Name, envName(cfg))

		if cfg.Hidden {
			_ = flags.MarkHidden(cfg.Name)
		}
	}
}

// flagSnapshot records the values of the flags set on the command line.
type flagSnapshot map[string][]string

func snapshotFlags(flags *pflag.FlagSet) flagSnapshot {
	s := flagSnapshot{}
	flags.Visit(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			s[f.Name] = sv.GetSlice()
			return
		}
		s[f.Name] = []string{f.Value.String()}
	})
	return s
}

// applyOverrides writes environment variables, then command-line flags, back over the bound
// variables. Flags take precedence over the environment, which takes precedence over loaded files.
func applyOverrides(flags *pflag.FlagSet, snapshot flagSnapshot) error {
	var errs []error
	flags.VisitAll(func(f *pflag.Flag) {
		values, changed := snapshot[f.Name]
		if !changed {
			if !viper.IsSet(f.Name) {
				return
			}
			raw := viper.GetString(f.Name)
			if _, ok := f.Value.(pflag.SliceValue); ok {
				values = splitList(raw)
			} else {
				values = []string{raw}
			}
		}
		if err := setFlag(f, values); err != nil {
			errs = append(errs, fmt.Errorf("invalid value for --%s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}

func setFlag(f *pflag.Flag, values []string) error {
	if sv, ok := f.Value.(pflag.SliceValue); ok {
		return sv.Replace(values)
	}
	if len(values) == 0 {
		return nil
	}
	return f.Value.Set(values[0])
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
