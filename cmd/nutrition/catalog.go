package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"nutrition"
	"nutrition/internal/log"
	nutritionmsgpack "nutrition/msgpack"
)

const (
	formatYAML    = "yaml"
	formatMsgpack = "msgpack"
)

func newCatalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Import or export the global unit catalog",
	}
	cmd.AddCommand(newCatalogImportCmd(a), newCatalogExportCmd(a))
	return cmd
}

// formatFor picks a catalog format from an explicit flag or the file name.
func formatFor(flag, path string) (string, error) {
	if flag == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".msgpack", ".mpk":
			return formatMsgpack, nil
		default:
			return formatYAML, nil
		}
	}
	switch flag {
	case formatYAML, formatMsgpack:
		return flag, nil
	}
	return "", fmt.Errorf("unknown catalog format %q (want %s or %s)", flag, formatYAML, formatMsgpack)
}

func newCatalogImportCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the global catalog with the contents of FILE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := formatFor(format, path)
			if err != nil {
				return err
			}

			var cat *nutrition.CatalogFile
			if f == formatMsgpack {
				file, err := os.Open(path) //nolint:gosec // G304: path is a command argument
				if err != nil {
					return err
				}
				defer file.Close()
				cat, err = nutritionmsgpack.ReadCatalog(file)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			} else {
				cat, err = nutrition.LoadCatalogFile(path)
				if err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			if err := a.store.ImportCatalog(ctx, cat); err != nil {
				return err
			}
			if err := a.reload(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d units and %d conversions\n", len(cat.Units()), len(cat.Conversions()))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "yaml or msgpack (default: from the file extension)")
	return cmd
}

func newCatalogExportCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Write the stored global catalog to FILE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := formatFor(format, path)
			if err != nil {
				return err
			}
			cat, err := a.store.Catalog(cmd.Context())
			if err != nil {
				return err
			}

			file, err := os.Create(path) //nolint:gosec // G304: path is a command argument
			if err != nil {
				return err
			}
			if f == formatMsgpack {
				err = nutritionmsgpack.WriteCatalog(file, cat)
			} else {
				err = cat.WriteYAML(file)
			}
			if cerr := file.Close(); cerr != nil && err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			log.Info(log.CatCLI, "catalog exported", "path", path, "format", f)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "yaml or msgpack (default: from the file extension)")
	return cmd
}
