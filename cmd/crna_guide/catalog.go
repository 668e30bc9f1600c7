package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jonathan/crna-guide/internal/catalog"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and validate step catalogs",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the steps of the configured catalog",
	RunE:  runCatalogList,
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a catalog YAML file without loading it into an engine",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogValidate,
}

var catalogPredicatesCmd = &cobra.Command{
	Use:   "predicates",
	Short: "List the condition predicates a catalog may use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		for _, name := range catalog.PredicateNames() {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var catalogJSON bool

func init() {
	catalogListCmd.Flags().BoolVar(&catalogJSON, "json", false, "Write the catalog as JSON")

	catalogCmd.AddCommand(catalogListCmd, catalogValidateCmd, catalogPredicatesCmd)
	rootCmd.AddCommand(catalogCmd)
}

func runCatalogList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	return listCatalog(cmd.OutOrStdout(), cat, catalogJSON)
}

func listCatalog(w io.Writer, cat *catalog.Catalog, asJSON bool) error {
	if asJSON {
		return writeJSON(w, "", map[string]any{
			"version": cat.Version(),
			"steps":   cat.Specs(),
		})
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Catalog %s (%d steps)\n\n", cat.Version(), cat.Len())
	_, _ = fmt.Fprintln(tw, "TIER\tORDER\tID\tCATEGORY\tWHEN")
	for _, e := range cat.Entries() {
		conds := make([]string, 0, len(e.When))
		for _, c := range e.When {
			conds = append(conds, c.Predicate)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", e.Tier, e.Order, e.ID, e.Category, strings.Join(conds, " & "))
	}
	return tw.Flush()
}

func runCatalogValidate(cmd *cobra.Command, args []string) error {
	cat, err := catalog.LoadFile(args[0])
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "OK: catalog %s with %d steps\n", cat.Version(), cat.Len())
	return nil
}
