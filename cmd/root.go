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
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "doctran",
	Short: "Office/PDF document translation service",
	Long: `doctran translates office and PDF documents between French, English,
Spanish and Italian using the Cloud Translation document API.

Documents are staged into a temporary storage bucket, translated by
reference, and the staged copies are purged whether the job succeeds
or fails.

Use "doctran serve" to run the HTTP submission and event endpoints,
or "doctran translate" for a one-shot translation of a local file.`,
	Version: version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file (default ./doctran.yaml)")
}
