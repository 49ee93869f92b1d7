package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/xonecas/quill/internal/document"
	"github.com/xonecas/quill/internal/highlight"
	"github.com/xonecas/quill/internal/indent"
	"github.com/xonecas/quill/internal/language/builtin"
)

// openDocument reads path and builds a document in the language its name
// suggests.
func openDocument(path string) (*document.Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	reg, err := builtin.Registry()
	if err != nil {
		return nil, err
	}
	lang, lexer := highlight.DetectLanguage(reg, path)
	log.Debug().Str("path", path).Str("lexer", lexer).Bool("grammar", lang.HasGrammar()).Msg("language detected")

	d, err := document.New(string(src),
		document.WithLanguage(lang),
		document.WithProvider(reg),
		document.WithTabWidth(cfg.Editor.TabWidth),
		document.WithDetectOptions(indent.DetectOptions{
			SampleLines: cfg.Indent.SampleLines,
			MinVotes:    cfg.Indent.MinVotes,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return d, nil
}

// defaultUnit is the configured indent unit, used when detection fails.
func defaultUnit() indent.Unit {
	if cfg.Editor.UseTabs {
		return indent.TabsUnit(cfg.Editor.TabWidth)
	}
	return indent.SpacesUnit(cfg.Editor.IndentWidth)
}
