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

	"github.com/spf13/cobra"

	"github.com/yrakibi/doctran/internal/config"
	"github.com/yrakibi/doctran/internal/journal"
)

var jobsLimit int

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List recent translation jobs from the journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cfg.JournalPath == "" {
			return fmt.Errorf("job journal is not enabled (set journal_path)")
		}

		jl, err := journal.Open(cfg.JournalPath)
		if err != nil {
			return err
		}
		defer jl.Close()

		entries, err := jl.Recent(context.Background(), jobsLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No jobs recorded")
			return nil
		}

		for _, e := range entries {
			line := fmt.Sprintf("%s  %-11s  %-8s  %s", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Flow, e.Status, e.FileName)
			if e.SourceCode != "" {
				line += fmt.Sprintf("  %s->%s", e.SourceCode, e.TargetCode)
			}
			if e.Error != "" {
				line += "  " + e.Error
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)

	jobsCmd.Flags().IntVar(&jobsLimit, "limit", 20, "Maximum number of jobs to list")
}
