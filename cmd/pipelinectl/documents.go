package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/ecoaction/internal/document"
	"github.com/Lllllllleong/ecoaction/internal/merge"
	"github.com/Lllllllleong/ecoaction/internal/schema"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Recover a candidate document from raw text",
	Long:  `Reads raw generator output from a file, or stdin when the file is "-", and prints the recovered candidate document.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

var sectionsCmd = &cobra.Command{
	Use:   "sections [file]",
	Short: "Parse a labeled-section challenge plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runSections,
}

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Recover and validate a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

var mergeCmd = &cobra.Command{
	Use:   "merge [profile-file] [analysis-file]",
	Short: "Merge a profile and a footprint analysis into a composite record",
	Args:  cobra.ExactArgs(2),
	RunE:  runMerge,
}

// Flags.
var (
	kindName  string
	asSection bool
	ownerID   string
)

// errInvalid signals a non-zero exit after the details have been printed.
var errInvalid = errors.New("document is not valid")

func init() {
	extractCmd.Flags().StringVarP(&kindName, "kind", "k", "", "Document kind whose skeleton fills a degraded result")
	validateCmd.Flags().StringVarP(&kindName, "kind", "k", "", "Document kind (required)")
	validateCmd.Flags().BoolVar(&asSection, "sections", false, "Read the input as labeled sections")
	mergeCmd.Flags().StringVar(&ownerID, "owner", "local", "Owner id recorded on the composite record")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(sectionsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(mergeCmd)
}

func readInput(cmd *cobra.Command, path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runExtract(cmd *cobra.Command, args []string) error {
	raw, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	var opts []document.ExtractOption
	if kindName != "" {
		registry, err := loadRegistry()
		if err != nil {
			return err
		}
		kind, err := schema.ParseKind(kindName)
		if err != nil {
			return err
		}
		opts = append(opts, document.WithSkeleton(registry.Skeleton(kind)))
	}

	doc := document.Extract(raw, opts...)
	if err := printJSON(cmd, doc); err != nil {
		return err
	}
	if degraded, ok := document.Degraded(doc); ok {
		return degraded
	}
	return nil
}

func runSections(cmd *cobra.Command, args []string) error {
	raw, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	registry, err := loadRegistry()
	if err != nil {
		return err
	}

	doc, diags := document.ParseSections(raw, document.WithSkeleton(registry.Skeleton(schema.KindChallengePlan)))
	for _, d := range diags {
		cmd.PrintErrln("warning:", d.String())
	}
	if err := printJSON(cmd, doc); err != nil {
		return err
	}
	if degraded, ok := document.Degraded(doc); ok {
		return degraded
	}
	return nil
}

// recoverDocument extracts and validates one file, printing violations to stderr.
func recoverDocument(cmd *cobra.Command, registry *schema.Registry, path string, kind schema.Kind, sections bool) (schema.ValidatedDocument, error) {
	raw, err := readInput(cmd, path)
	if err != nil {
		return schema.ValidatedDocument{}, err
	}

	var candidate document.Object
	if sections {
		var diags []document.Diagnostic
		candidate, diags = document.ParseSections(raw, document.WithSkeleton(registry.Skeleton(kind)))
		for _, d := range diags {
			cmd.PrintErrln("warning:", d.String())
		}
	} else {
		candidate = document.Extract(raw, document.WithSkeleton(registry.Skeleton(kind)))
	}

	doc, err := registry.Validate(candidate, kind)
	if err != nil {
		var verr *schema.ValidationError
		if !errors.As(err, &verr) {
			return schema.ValidatedDocument{}, err
		}
		cmd.PrintErrf("%s: %d violation(s)\n", path, len(verr.Violations))
		for _, v := range verr.Violations {
			cmd.PrintErrln("  " + v.String())
		}
		return schema.ValidatedDocument{}, errInvalid
	}
	return doc, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	if kindName == "" {
		return errors.New("--kind is required")
	}
	kind, err := schema.ParseKind(kindName)
	if err != nil {
		return err
	}
	registry, err := loadRegistry()
	if err != nil {
		return err
	}

	doc, err := recoverDocument(cmd, registry, args[0], kind, asSection)
	if err != nil {
		return err
	}
	return printJSON(cmd, doc)
}

func runMerge(cmd *cobra.Command, args []string) error {
	registry, err := loadRegistry()
	if err != nil {
		return err
	}
	profile, err := recoverDocument(cmd, registry, args[0], schema.KindProfile, false)
	if err != nil {
		return err
	}
	analysis, err := recoverDocument(cmd, registry, args[1], schema.KindFootprintAnalysis, false)
	if err != nil {
		return err
	}
	return printJSON(cmd, merge.New().Merge(profile, analysis, ownerID))
}
