package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"nutrition"
)

func newIngredientCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingredient",
		Short: "Manage ingredients and their own unit conversions",
	}
	cmd.AddCommand(newIngredientAddCmd(a), newIngredientRemoveCmd(a))
	return cmd
}

func newIngredientAddCmd(a *app) *cobra.Command {
	var (
		conversions []string
		flags       []string
		cost        float64
		costPer     string
	)
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create or replace an ingredient",
		Long: `Create or replace an ingredient.

Examples:
  # An apple weighs 182 g and costs 3 per kilogram
  nutrition ingredient add apple --conversion "1 whole=182 gram" --cost 3 --cost-per "1 kilogram"

  # Several conversions and flags
  nutrition ingredient add flour -C "1 cup=125 gram" -C "1 tablespoon=8 gram" --flag vegan`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ing := nutrition.NewIngredient(args[0])
			ing.Flags = flags
			ing.Cost = cost

			if costPer != "" {
				q, err := a.parseQuantity(ctx, costPer)
				if err != nil {
					return fmt.Errorf("--cost-per: %w", err)
				}
				ing.CostQuantity = q
			}
			for _, raw := range conversions {
				c, err := a.parseConversion(ctx, raw)
				if err != nil {
					return fmt.Errorf("--conversion %q: %w", raw, err)
				}
				if err := ing.AddConversion(c); err != nil {
					return err
				}
			}

			if existing, err := a.store.LoadIngredient(ctx, a.reg, ing.Name); err == nil {
				ing.ID = existing.ID
			}
			if err := a.store.SaveIngredient(ctx, ing); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ing.ID, ing.Name)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&conversions, "conversion", "C", nil, `ingredient conversion such as "1 whole=182 gram" (repeatable)`)
	cmd.Flags().StringArrayVar(&flags, "flag", nil, "dietary flag (repeatable)")
	cmd.Flags().Float64Var(&cost, "cost", 0, "price of --cost-per")
	cmd.Flags().StringVar(&costPer, "cost-per", "", `quantity the cost buys, such as "1 kilogram"`)
	return cmd
}

func newIngredientRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm NAME",
		Aliases: []string{"remove"},
		Short:   "Delete an ingredient and its conversions",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.store.DeleteIngredient(cmd.Context(), args[0])
		},
	}
}

// parseQuantity reads "VALUE UNIT"; the unit name may contain spaces.
func (a *app) parseQuantity(ctx context.Context, s string) (nutrition.Quantity, error) {
	value, name, ok := strings.Cut(strings.TrimSpace(s), " ")
	if !ok {
		return nutrition.Quantity{}, fmt.Errorf("want VALUE UNIT, got %q", s)
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nutrition.Quantity{}, err
	}
	u, err := a.unit(ctx, strings.TrimSpace(name))
	if err != nil {
		return nutrition.Quantity{}, err
	}
	return nutrition.NewQuantity(u, v), nil
}

// parseConversion reads "VALUE UNIT=VALUE UNIT".
func (a *app) parseConversion(ctx context.Context, s string) (*nutrition.UnitConversion, error) {
	left, right, ok := strings.Cut(s, "=")
	if !ok {
		return nil, errors.New("want VALUE UNIT=VALUE UNIT")
	}
	qa, err := a.parseQuantity(ctx, left)
	if err != nil {
		return nil, err
	}
	qb, err := a.parseQuantity(ctx, right)
	if err != nil {
		return nil, err
	}
	return nutrition.NewUnitConversion(qa, qb)
}
