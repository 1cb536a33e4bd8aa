package main

import (
	"fmt"
	"strings"

	"inventory-backend/internal/domains/itemimport/model"
	"inventory-backend/internal/domains/itemimport/service"

	"github.com/spf13/cobra"
)

func newAliasesCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "aliases",
		Short: "Print accepted header aliases for each field",
		RunE: func(cmd *cobra.Command, args []string) error {
			var extra map[string][]string
			if file != "" {
				loaded, err := service.LoadAliasFile(file)
				if err != nil {
					return withCode(exitUsage, err)
				}
				extra = loaded
			}

			table, err := service.NewAliasTable(extra)
			if err != nil {
				return withCode(exitUsage, err)
			}

			for _, field := range model.CanonicalFields {
				fmt.Fprintf(cmd.OutOrStdout(), "%-13s %s\n", field, strings.Join(table.Aliases(field), ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "YAML alias file to merge (same format as IMPORT_ALIASES_FILE)")
	return cmd
}
