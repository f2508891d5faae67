package cmd

import (
	"fmt"
	"os"

	"github.com/marcus/driftsync/internal/coverage"
	"github.com/marcus/driftsync/internal/models"
	"github.com/marcus/driftsync/internal/output"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Report variant/test coverage for a component",
	Long: `Computes the percentage of defined variants with stories, the variants and
test types still missing, and anomaly warnings.

Input file format:
  {"component_id": "button",
   "defined_variants": ["primary", "secondary"],
   "existing_stories": [{"variant_name": "primary", "test_types": ["visual"]}]}`,
	GroupID: "report",
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath, _ := cmd.Flags().GetString("input")
		jsonOut, _ := cmd.Flags().GetBool("json")

		in, err := loadCoverageInput(inputPath)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		result := coverage.Compute(*in)

		if jsonOut {
			return output.JSON(result)
		}

		output.Title("%s: %d%% variant coverage", result.ComponentID, result.VariantCoveragePct)
		for _, v := range result.MissingVariants {
			fmt.Printf("  missing variant: %s\n", v)
		}
		for _, mt := range result.MissingTests {
			types := make([]string, len(mt.MissingTestTypes))
			for i, t := range mt.MissingTestTypes {
				types[i] = string(t)
			}
			fmt.Printf("  %s lacks tests: %s\n", mt.VariantName, output.FormatChangeTypes(types))
		}
		for _, w := range result.Warnings {
			output.Warning("%s", w)
		}
		return nil
	},
}

func loadCoverageInput(path string) (*coverage.Input, error) {
	if path == "" {
		return nil, fmt.Errorf("--input is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read coverage input: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("coverage file %s: invalid JSON", path)
	}
	doc := gjson.ParseBytes(data)

	in := &coverage.Input{ComponentID: doc.Get("component_id").String()}
	doc.Get("defined_variants").ForEach(func(_, v gjson.Result) bool {
		in.DefinedVariants = append(in.DefinedVariants, v.String())
		return true
	})
	doc.Get("existing_stories").ForEach(func(_, entry gjson.Result) bool {
		story := models.Story{VariantName: entry.Get("variant_name").String()}
		entry.Get("test_types").ForEach(func(_, t gjson.Result) bool {
			story.TestTypes = append(story.TestTypes, models.TestType(t.String()))
			return true
		})
		in.ExistingStories = append(in.ExistingStories, story)
		return true
	})
	return in, nil
}

func init() {
	coverageCmd.Flags().String("input", "", "path to the component coverage JSON file")
	coverageCmd.Flags().Bool("json", false, "output JSON")
	rootCmd.AddCommand(coverageCmd)
}
