package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"geokit.dev/tools/geokit/internal/adapter"
	"geokit.dev/tools/geokit/internal/controller"
	"geokit.dev/tools/geokit/internal/domain"
	m "geokit.dev/tools/geokit/internal/model"
)

// evaluatorFactory builds the predicate evaluator; '-' arguments read from
// stdin.
type evaluatorFactory func(stdin io.Reader) domain.PredicateEvaluator

var newEvaluator evaluatorFactory = func(stdin io.Reader) domain.PredicateEvaluator {
	return domain.NewPredicateEvaluator(adapter.NewLocalGeoJSONAdapter(stdin))
}

var (
	verboseFlag bool
	logFileFlag string
)

const rootLongDescription = `Geopred evaluates a spatial predicate between two GeoJSON geometries and
prints true or false.

Each geometry is a GeoJSON Geometry or Feature given as:
  '<json>'   the JSON text itself
  @<file>    the contents of a file
  -          standard input (at most one argument)

Operations:
  crosses     the interiors meet and the result has lower dimension
  contains    geometry2 lies in geometry1 and touches its interior
  within      geometry1 lies in geometry2
  intersects  the geometries share at least one point
  disjoint    the geometries share no point
  touches     the geometries meet only on their boundaries
  overlaps    same-dimension geometries share part of their interiors
  equals      the geometries cover the same point set`

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "geopred <operation> <geometry1> <geometry2>",
		Short:         "Evaluate a spatial predicate between two GeoJSON geometries",
		Long:          rootLongDescription,
		Example:       `  geopred contains '{"type":"Polygon","coordinates":[[[0,0],[0,2],[2,2],[2,0],[0,0]]]}' '{"type":"Point","coordinates":[1,1]}'`,
		Version:       buildVersion(),
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return m.OperationNames(), cobra.ShellCompDirectiveNoFileComp
			}

			return nil, cobra.ShellCompDirectiveDefault
		},
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			configureLogger()

			if configErr != nil {
				slog.Error("Invalid config file", "file", configFileName, "error", configErr)
				return configErr
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			result, err := newEvaluator(cmd.InOrStdin()).EvaluateArgs(ctx, args[0], args[1], args[2])
			if err != nil {
				return err
			}

			return controller.PrintBool(cmd.OutOrStdout(), result)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)

	cmd.PersistentFlags().StringVar(&logFileFlag, logFileFlagName, viper.GetString(logFilenameKey), "log file path")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(logFileFlagName), logFilenameKey)

	return cmd
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}
