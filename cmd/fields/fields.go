// Package fields contains the command printing the canonical field catalog
package fields

import (
	"fmt"
	"sort"

	"github.com/rijnhardtkotze/icann-reports/internal/fields"

	"github.com/spf13/cobra"
)

// Cmd is the fields command
var Cmd = &cobra.Command{
	Use:   "fields",
	Short: "Print the canonical field catalog grouped by category",
	Run: func(cmd *cobra.Command, args []string) {
		catalog := fields.NewCatalog()
		metadata := catalog.MetadataByCategory()

		categories := make([]string, 0, len(metadata))
		for category := range metadata {
			categories = append(categories, category)
		}
		sort.Strings(categories)

		for _, category := range categories {
			fmt.Printf("%s:\n", category)

			names := make([]string, 0, len(metadata[category]))
			for name := range metadata[category] {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				fmt.Printf("  %-30s %s\n", name, metadata[category][name])
			}
			fmt.Println()
		}
	},
}
