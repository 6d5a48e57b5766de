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

	"github.com/rs/zerolog"

	"github.com/yrakibi/doctran/internal/config"
	"github.com/yrakibi/doctran/internal/journal"
	"github.com/yrakibi/doctran/internal/logging"
	"github.com/yrakibi/doctran/internal/orchestrator"
	"github.com/yrakibi/doctran/internal/storage"
	"github.com/yrakibi/doctran/internal/translator"
)

// app bundles everything a command needs once configuration is resolved.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	orch    *orchestrator.Orchestrator
	journal *journal.Journal

	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn().Err(err).Msg("error during shutdown")
		}
	}
}

// buildApp loads configuration and wires the storage client, the
// translation client, the optional journal and the orchestrator.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}

	store, err := storage.NewGCS(ctx, cfg.Credentials)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.Close)

	tr, err := translator.NewGoogle(ctx, translator.Config{
		ProjectID:   cfg.ProjectID,
		Location:    cfg.Location,
		Credentials: cfg.Credentials,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, tr.Close)

	var rec orchestrator.Recorder
	if cfg.JournalPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.JournalPath), 0755); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
		jl, err := journal.Open(cfg.JournalPath)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.journal = jl
		a.closers = append(a.closers, jl.Close)
		rec = jl
	}

	a.orch = orchestrator.New(store, tr, rec, orchestrator.Config{
		StagingBucket: cfg.StagingBucket,
		InputBucket:   cfg.InputBucket,
		OutputBucket:  cfg.OutputBucket,
		ErrorBucket:   cfg.ErrorBucket,
	}, logger)

	return a, nil
}
