package main

import (
	"github.com/spf13/cobra"

	"github.com/alchemorsel/ingredients/internal/domain/ingredient"
	"github.com/alchemorsel/ingredients/internal/ports/inbound"
	"github.com/alchemorsel/ingredients/pkg/errors"
)

func convertCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <quantity> <from> [to]",
		Short: "Convert a quantity between units of one dimension",
		Long:  "Converts the quantity from one unit to another. Without a target unit every unit of the same dimension is listed. Quantities may be fractions or mixed numbers such as \"1 1/2\".",
		Example: `  normalize convert 2 cups ml
  normalize convert "1 1/2" tbsp`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, ok := ingredient.ParseQuantity(args[0])
			if !ok {
				return errors.NewValidationError("quantity " + args[0] + " is not a number")
			}
			command := inbound.ConvertCommand{Quantity: quantity, From: args[1]}
			if len(args) == 3 {
				command.To = args[2]
			}

			service, err := rt.service(0)
			if err != nil {
				return err
			}
			result, err := service.Convert(cmd.Context(), command)
			if err != nil {
				return err
			}
			return rt.write(cmd.OutOrStdout(), result)
		},
	}

	return cmd
}
