package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Lllllllleong/ecoaction/internal/schema"
)

var schemasCmd = &cobra.Command{
	Use:   "schemas [kind]",
	Short: "Print the registered schemas as YAML",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSchemas,
}

func init() {
	rootCmd.AddCommand(schemasCmd)
}

// schemaView is the printed form of a schema, with its invariants rendered as text.
type schemaView struct {
	Kind       schema.Kind    `yaml:"kind"`
	Version    string         `yaml:"version"`
	AllowExtra bool           `yaml:"allow_extra"`
	Invariants []string       `yaml:"invariants,omitempty"`
	Fields     []schema.Field `yaml:"fields"`
}

func runSchemas(cmd *cobra.Command, args []string) error {
	registry, err := loadRegistry()
	if err != nil {
		return err
	}

	schemas := registry.Schemas()
	if len(args) == 1 {
		kind, err := schema.ParseKind(args[0])
		if err != nil {
			return err
		}
		s, err := registry.Schema(kind)
		if err != nil {
			return err
		}
		schemas = []*schema.Schema{s}
	}

	views := make([]schemaView, 0, len(schemas))
	for _, s := range schemas {
		view := schemaView{Kind: s.Kind, Version: s.Version, AllowExtra: s.AllowExtra, Fields: s.Fields}
		for _, inv := range s.Invariants {
			view.Invariants = append(view.Invariants, inv.String())
		}
		views = append(views, view)
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(views)
}
