package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"nutrition"
)

func newConvertCmd(a *app) *cobra.Command {
	var (
		ingredient string
		explain    bool
	)
	cmd := &cobra.Command{
		Use:   "convert VALUE FROM TO",
		Short: "Convert a quantity to another unit",
		Long: `Convert a quantity to another unit using the global catalog.

Examples:
  # Plain catalog conversion
  nutrition convert 2000 gram kilogram

  # Bridge mass and volume with an ingredient's own conversions
  nutrition convert 2 whole gram --ingredient apple

  # Show the conversions the result went through
  nutrition convert 1 cup tablespoon --explain`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("value %q: %w", args[0], err)
			}
			ctx := cmd.Context()
			from, err := a.unit(ctx, args[1])
			if err != nil {
				return err
			}
			to := args[2]
			if _, err := a.unit(ctx, to); err != nil {
				return err
			}
			extra, err := a.ingredientConversions(ctx, ingredient)
			if err != nil {
				return err
			}

			got, err := a.sys.ConvertQuantity(nutrition.NewQuantity(from, value), to, extra...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, got)

			if explain {
				path, err := a.sys.Path(from.Name, to, extra...)
				if err != nil {
					return err
				}
				for _, c := range path {
					fmt.Fprintf(out, "  via %s\n", c)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&ingredient, "ingredient", "i", "", "use the conversions of this ingredient")
	cmd.Flags().BoolVar(&explain, "explain", false, "print the conversions used")
	return cmd
}

func newUnitsCmd(a *app) *cobra.Command {
	var (
		from       string
		ingredient string
	)
	cmd := &cobra.Command{
		Use:   "units",
		Short: "List the units reachable from a unit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == "" {
				from = a.cfg.BaseUnit
			}
			extra, err := a.ingredientConversions(cmd.Context(), ingredient)
			if err != nil {
				return err
			}
			for _, name := range a.sys.AvailableUnitNames(from, extra...) {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "start unit (default: base_unit from config)")
	cmd.Flags().StringVarP(&ingredient, "ingredient", "i", "", "include the conversions of this ingredient")
	return cmd
}
