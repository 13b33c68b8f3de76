package cli

import (
	"fmt"
	"strings"

	"morvo-assistant/pkg/registry"

	"github.com/spf13/cobra"
)

const defaultRegistryPath = "configs/keywords.json"

func newRegistryCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect and edit the keyword registry",
	}
	cmd.PersistentFlags().StringVarP(&path, "path", "p", defaultRegistryPath, "Path to registry file")

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Validate the registry file",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return fmt.Errorf("registry validation failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d categories.\n", len(reg.Categories))
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List categories with their tables and keywords",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			for _, c := range reg.Categories {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", c.ID, c.Table, strings.Join(c.Keywords, ", "))
			}
			return nil
		},
	}

	var category, keyword string
	addKeyword := &cobra.Command{
		Use:   "add-keyword",
		Short: "Add a trigger keyword to a category",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if err := reg.AddKeyword(category, keyword); err != nil {
				return err
			}
			if err := reg.Save(path); err != nil {
				return fmt.Errorf("failed to write registry file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added keyword %q to %s\n", keyword, category)
			return nil
		},
	}
	addKeyword.Flags().StringVar(&category, "category", "", "Category ID (required)")
	addKeyword.Flags().StringVar(&keyword, "keyword", "", "Keyword to add (required)")
	_ = addKeyword.MarkFlagRequired("category")
	_ = addKeyword.MarkFlagRequired("keyword")

	cmd.AddCommand(validate, list, addKeyword)
	return cmd
}
