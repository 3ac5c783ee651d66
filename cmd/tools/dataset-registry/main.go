// cmd/tools/dataset-registry/main.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	apperrors "gov-dash/internal/common/errors"
	"gov-dash/pkg/registry"
)

const defaultPath = "configs/datasets.json"

func main() {
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)

	listPath := listCmd.String("path", "", "Catalog file (empty lists the built-in catalog)")
	validatePath := validateCmd.String("path", defaultPath, "Catalog file to validate")
	exportPath := exportCmd.String("path", defaultPath, "Destination for the built-in catalog")
	exportForce := exportCmd.Bool("force", false, "Overwrite an existing file")

	addPath := addCmd.String("path", defaultPath, "Catalog file to update")
	id := addCmd.String("id", "", "Dataset ID (e.g., rail_schedule)")
	name := addCmd.String("name", "", "Display name")
	endpoint := addCmd.String("endpoint", "", "Resource URL")
	filters := addCmd.String("filters", "", "Comma-separated filter fields")
	columns := addCmd.String("columns", "", "Comma-separated output columns")
	keywords := addCmd.String("keywords", "", "Comma-separated routing keywords, in priority order")
	limit := addCmd.Int("limit", 10, "Default record limit")
	download := addCmd.String("download", "", "Download file name (default <id>.csv)")
	example := addCmd.String("example", "", "Example question shown in the assistance panel")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "list":
		listCmd.Parse(os.Args[2:])
		if err := list(*listPath); err != nil {
			fmt.Printf("Error listing datasets: %v\n", err)
			os.Exit(1)
		}

	case "validate":
		validateCmd.Parse(os.Args[2:])
		n, err := validate(*validatePath)
		if err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registry validation passed. Found %d datasets.\n", n)

	case "export":
		exportCmd.Parse(os.Args[2:])
		if err := export(*exportPath, *exportForce); err != nil {
			fmt.Printf("Error exporting catalog: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Exported built-in catalog to %s\n", *exportPath)

	case "add":
		addCmd.Parse(os.Args[2:])
		if *id == "" || *name == "" || *endpoint == "" || *keywords == "" {
			fmt.Println("Error: id, name, endpoint, and keywords are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		d := registry.DatasetDescriptor{
			ID:           *id,
			Name:         *name,
			Endpoint:     *endpoint,
			Filters:      splitList(*filters),
			Columns:      splitList(*columns),
			Keywords:     splitList(*keywords),
			DefaultLimit: *limit,
			DownloadName: *download,
		}
		if *example != "" {
			d.Examples = []string{*example}
		}
		if err := add(*addPath, d); err != nil {
			fmt.Printf("Error adding dataset: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added dataset: %s\n", *id)

	case "help":
		fallthrough
	default:
		help()
	}
}

func list(path string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return err
	}
	for _, d := range reg.Descriptors() {
		fmt.Printf("%-24s %-55s keywords=%s\n", d.ID, d.Name, strings.Join(d.Keywords, ","))
	}
	return nil
}

// validate reports unreadable files as-is and every content problem as an
// INVALID_REGISTRY error.
func validate(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	if err := registry.ValidateCatalogJSON(data); err != nil {
		return 0, apperrors.NewInvalidRegistryError(err.Error())
	}
	catalog, err := registry.LoadCatalog(path)
	if err != nil {
		return 0, apperrors.NewInvalidRegistryError(err.Error())
	}
	reg, err := registry.New(catalog)
	if err != nil {
		return 0, apperrors.NewInvalidRegistryError(err.Error())
	}
	return reg.Len(), nil
}

func export(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", path)
	}
	return registry.SaveRegistry(path, registry.Builtin())
}

func add(path string, d registry.DatasetDescriptor) error {
	catalog, err := registry.LoadCatalog(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		catalog = &registry.Catalog{Version: "1.0.0"}
	}

	for _, existing := range catalog.Datasets {
		if existing.ID == d.ID {
			return fmt.Errorf("dataset with ID %s already exists", d.ID)
		}
	}

	catalog.Datasets = append(catalog.Datasets, d)
	catalog.LastUpdated = time.Now().Format("2006-01-02")

	// rejects bad descriptors before anything is written
	if _, err := registry.New(catalog); err != nil {
		return err
	}
	return registry.SaveRegistry(path, catalog)
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func help() {
	fmt.Print(`
Usage: dataset-registry <command> [flags]

Commands:
  list      List datasets in routing order
  validate  Validate a catalog file against the schema
  export    Write the built-in catalog to a file
  add       Append a dataset to a catalog file
  help      Show this help message

Examples:
  dataset-registry list -path configs/datasets.json
  dataset-registry export -path configs/datasets.json
  dataset-registry add -id rail_schedule -name "Rail Schedule" -endpoint https://api.data.gov.in/resource/xyz -keywords "train,rail" -filters "station"
  dataset-registry validate -path configs/datasets.json

Use 'dataset-registry <command> -h' for more information about a command.
`)
}
