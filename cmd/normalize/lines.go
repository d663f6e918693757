package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const maxLineBytes = 1 << 20

func linesCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lines [file]",
		Short: "Normalize ingredient lines, one per line",
		Long:  "Reads one ingredient per line from the file, or from stdin when no file is given, and prints the batch result. Blank lines are skipped.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()

			var lines []string
			scanner := bufio.NewScanner(in)
			scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				lines = append(lines, line)
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}

			service, err := rt.service(len(lines))
			if err != nil {
				return err
			}
			result, err := service.NormalizeBatch(cmd.Context(), lines)
			if err != nil {
				return err
			}

			rt.logger.Info("Lines normalized",
				zap.Int("total", result.Total),
				zap.String("batch_id", result.BatchID),
			)
			return rt.write(cmd.OutOrStdout(), result)
		},
	}

	return cmd
}
