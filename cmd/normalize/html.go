package main

import (
	"github.com/spf13/cobra"

	"github.com/alchemorsel/ingredients/internal/infrastructure/recipesource"
)

func htmlCommand(rt *runtime) *cobra.Command {
	var maxBytes int64

	cmd := &cobra.Command{
		Use:   "html [file]",
		Short: "Extract a recipe from an HTML document and normalize its ingredients",
		Long:  "Reads an HTML document from the file, or from stdin when no file is given. JSON-LD Recipe data is preferred; ingredient markup is the fallback.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()

			service, err := rt.service(0)
			if err != nil {
				return err
			}
			source := recipesource.NewHTMLSource(in)
			if maxBytes > 0 {
				source = source.WithMaxBytes(maxBytes)
			}
			result, err := service.NormalizeRecipe(cmd.Context(), source)
			if err != nil {
				return err
			}
			return rt.write(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().Int64Var(&maxBytes, "max-bytes", 0, "Largest document accepted, in bytes (0 uses the default)")

	return cmd
}
