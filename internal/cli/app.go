package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/a3tai/sign-form/internal/config"
	"github.com/a3tai/sign-form/internal/document"
	"github.com/a3tai/sign-form/internal/document/security"
	"github.com/a3tai/sign-form/internal/document/template"
	"github.com/a3tai/sign-form/internal/form"
	"github.com/a3tai/sign-form/internal/store"
)

// app holds the services built from the configuration
type app struct {
	store     store.Store
	forms     *form.Repository
	documents *document.Service
}

func newApp(cfg *config.Config) (*app, error) {
	st, err := store.Open(cfg.Store, cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	guard, err := security.NewOutputGuard(cfg.OutputDir)
	if err != nil {
		st.Close()
		return nil, err
	}

	opts := document.DefaultOptions()
	opts.Resolver.MergeFragments = cfg.MergeFragments
	opts.Resolver.SynthesizeSignature = cfg.SynthesizeSignature
	opts.Resolver.Strict = cfg.Strict
	opts.SignatureWidth = cfg.SignatureWidth
	opts.SignatureHeight = cfg.SignatureHeight
	opts.Logger = log.Default()
	if cfg.FontPath != "" {
		font, err := os.ReadFile(cfg.FontPath)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to read font: %w", err)
		}
		opts.Font = font
	}

	forms := form.NewRepository(st)
	source := template.New(cfg.AssetRoot, cfg.TemplatePath, cfg.MaxTemplateSize)

	return &app{
		store:     st,
		forms:     forms,
		documents: document.NewService(forms, source, guard, opts),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
