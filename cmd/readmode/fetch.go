package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/readmode/internal/extract"
	"github.com/mohammad-safakhou/readmode/internal/helpers"
	"github.com/mohammad-safakhou/readmode/internal/logging"
	"github.com/mohammad-safakhou/readmode/internal/reader"
	"github.com/mohammad-safakhou/readmode/models"
	gemini_provider "github.com/mohammad-safakhou/readmode/provider/gemini"
	"github.com/mohammad-safakhou/readmode/repository"
)

func newReader(ctx context.Context, a *app) (*reader.Service, error) {
	llm, err := gemini_provider.NewClientFromConfig(ctx, a.cfg.LLM)
	if err != nil {
		return nil, err
	}
	return reader.New(llm, reader.OptionsFromConfig(a.cfg.LLM, logging.New("reader"))), nil
}

// remember adds the article to the configured history; failures are logged.
func remember(ctx context.Context, a *app, article models.Article) {
	hist, err := repository.NewHistoryRepository(ctx, *a.cfg)
	if err != nil {
		log.Printf("history unavailable: %v", err)
		return
	}
	if _, err := hist.Add(ctx, models.HistoryEntry{URL: article.URL, Title: article.Title}); err != nil {
		log.Printf("history add %s: %v", article.URL, err)
	}
}

func fetchCMD(a *app) *cobra.Command {
	var format, out string
	var fetch = &cobra.Command{
		Use:   "fetch <url>",
		Short: "Retrieve an article through the model and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pageURL, err := helpers.EnsureScheme(args[0])
			if err != nil {
				return err
			}
			svc, err := newReader(ctx, a)
			if err != nil {
				return err
			}
			article, err := svc.FetchArticle(ctx, pageURL)
			if err != nil {
				return err
			}
			remember(ctx, a, article)
			b, err := render(ctx, a.cfg.Export, article, format)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), out, b)
		},
	}
	fetch.Flags().StringVarP(&format, "format", "f", "json", "output format: json, md, html or pdf")
	fetch.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return fetch
}

func extractCMD(a *app) *cobra.Command {
	var format, out, fetcher string
	var ex = &cobra.Command{
		Use:   "extract <url>",
		Short: "Extract an article locally with readability, without the model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ecfg := a.cfg.Extract
			if fetcher != "" {
				ecfg.Fetcher = fetcher
			}
			extractor, err := extract.NewFromConfig(ecfg, logging.New("extract"))
			if err != nil {
				return err
			}
			article, err := extractor.Extract(ctx, args[0])
			if err != nil {
				return err
			}
			remember(ctx, a, article)
			b, err := render(ctx, a.cfg.Export, article, format)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), out, b)
		},
	}
	ex.Flags().StringVarP(&format, "format", "f", "json", "output format: json, md, html or pdf")
	ex.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	ex.Flags().StringVar(&fetcher, "fetcher", "", "http or chromedp (overrides extract.fetcher)")
	return ex
}
