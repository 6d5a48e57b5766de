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
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yrakibi/doctran/internal/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP submission and event endpoints",
	Long: `Run the doctran HTTP server.

Endpoints:
  POST /api/translate    multipart submission, returns the translated document
  POST /api/events/gcs   storage object-created notifications (batch flow)
  GET  /api/jobs         recent job journal entries
  GET  /healthz          liveness probe`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		var jobs httpapi.JobLister
		if a.journal != nil {
			jobs = a.journal
		}

		srv := httpapi.NewServer(a.orch, jobs, a.logger, httpapi.Options{
			Host: a.cfg.HTTPHost,
			Port: a.cfg.HTTPPort,
		})
		return srv.Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
