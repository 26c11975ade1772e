// cmd/tools/catalog-validate/main.go
package main

import (
	"flag"
	"fmt"
	"os"

	"promptlab-workers/pkg/templates"
)

func main() {
	path := flag.String("path", "configs/template-catalog.json", "Path to catalog overlay file")
	list := flag.Bool("list", false, "Print the merged catalog after validation")
	flag.Parse()

	data, err := os.ReadFile(*path)
	if err != nil {
		fmt.Printf("Error reading catalog: %v\n", err)
		os.Exit(1)
	}

	if err := templates.ValidateCatalogJSON(data); err != nil {
		fmt.Printf("Validation failed: %v\n", err)
		os.Exit(1)
	}

	registry, err := templates.LoadCatalog(*path)
	if err != nil {
		fmt.Printf("Error loading catalog: %v\n", err)
		os.Exit(1)
	}

	all := registry.All()
	fmt.Printf("Catalog is valid: %d templates after merge\n", len(all))

	if *list {
		for _, d := range all {
			gate := d.MinPlan
			if gate == "" {
				gate = "free"
			}
			fmt.Printf("  %-28s %-14s minPlan=%s\n", d.ID, d.Category, gate)
		}
	}
}
