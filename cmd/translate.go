/*
Copyright © 2025 Yassine Rakibi

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yrakibi/doctran/internal/orchestrator"
	"github.com/yrakibi/doctran/internal/registry"
)

var (
	translateInput  string
	translateOutput string
	translateSource string
	translateTarget string
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate a local document in one shot",
	Long: fmt.Sprintf(`Translate a single office/PDF document.

The file is staged into the temporary bucket, translated synchronously,
and the staged copy is removed before the result is written out.

Supported languages:  %s
Supported extensions: %s`,
		strings.Join(registry.Languages(), ", "),
		strings.Join(registry.Extensions(), ", ")),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(translateInput)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}

		ctx := context.Background()
		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.orch.Translate(ctx, orchestrator.Submission{
			FileName:       filepath.Base(translateInput),
			Content:        content,
			SourceLanguage: translateSource,
			TargetLanguage: translateTarget,
		})
		if err != nil {
			return err
		}
		if res.CleanupWarning != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", res.CleanupWarning)
		}

		out := translateOutput
		if out == "" {
			out = filepath.Join(filepath.Dir(translateInput), res.FileName)
		}
		if err := os.WriteFile(out, res.Content, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}

		fmt.Printf("Successfully translated %s to %s\n", translateSource, translateTarget)
		fmt.Printf("Output written to %s\n", out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&translateInput, "input", "i", "", "Input document to translate (required)")
	translateCmd.Flags().StringVarP(&translateOutput, "output", "o", "", "Output path (defaults to the input directory)")
	translateCmd.Flags().StringVarP(&translateSource, "source", "s", "", "Source language display name, e.g. French (required)")
	translateCmd.Flags().StringVarP(&translateTarget, "target", "t", "", "Destination language display name, e.g. English (required)")

	translateCmd.MarkFlagRequired("input")
	translateCmd.MarkFlagRequired("source")
	translateCmd.MarkFlagRequired("target")
}
