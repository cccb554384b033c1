/*
Copyright © 2024 paul <paul@denknerd.org>
*/
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"

	"github.com/spf13/cobra"
	"github.com/toothbrush/content-replicate/content"
	"github.com/toothbrush/content-replicate/sitemap"
)

var sitemapCmd = &cobra.Command{
	Use:   "sitemap <root>",
	Short: "List the sitemap entries below a root",
	Long: `
Walk the content below root and print its sitemap entries as JSON: the public URL of each page and
the properties configured in the 'sitemap' section of the config file.
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSitemap(cmd.Context(), cmd.OutOrStdout(), args[0])
	},
}

var SitemapIndex int

func init() {
	rootCmd.AddCommand(sitemapCmd)

	sitemapCmd.Flags().IntVar(&SitemapIndex, "index", 0, "number of the sitemap document to name in the output")
}

type sitemapOutput struct {
	SiteMap string           `json:"sitemap"`
	Entries []*sitemap.Entry `json:"entries"`
}

func runSitemap(ctx context.Context, w io.Writer, rootPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	repo, err := loadRepository(ctx)
	if err != nil {
		return err
	}
	root, ok := repo.Get(rootPath)
	if !ok {
		return fmt.Errorf("cmd: no content at %s", rootPath)
	}

	x, err := newExtractor(ParsedConfig.Sitemap, repo)
	if err != nil {
		return err
	}
	if !x.AppliesTo(root) {
		return fmt.Errorf("cmd: sitemap configuration does not apply to %s", root.Path)
	}

	out := sitemapOutput{
		SiteMap: x.BuildSiteMapURL(root, SitemapIndex),
		Entries: x.Extract(root),
	}
	if out.Entries == nil {
		out.Entries = []*sitemap.Entry{}
	}
	Logger.Debug().Str("root", root.Path).Int("entries", len(out.Entries)).Msg("extracted sitemap")

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func newExtractor(cfg SitemapConfig, repo *content.Repository) (*sitemap.Extractor, error) {
	config := &sitemap.Configuration{
		PageRecognizer: sitemap.KindRecognizer{HideProperty: cfg.HideProperty},
	}

	if cfg.Pattern != "" {
		re, err := regexp.Compile(cfg.Pattern)
		if err != nil {
			return nil, fmt.Errorf("cmd: bad sitemap pattern: %w", err)
		}
		config.PagePathPattern = re
	}

	if len(cfg.Externalize) > 0 {
		mappings := make([]sitemap.Mapping, 0, len(cfg.Externalize))
		for _, m := range cfg.Externalize {
			mappings = append(mappings, sitemap.Mapping{Prefix: m.Prefix, BaseURL: m.BaseURL})
		}
		config.Externalizer = sitemap.NewPrefixExternalizer(mappings...)
	}

	for _, p := range cfg.Properties {
		switch {
		case p.JSONPath != "":
			provider, err := sitemap.NewJSONPath(p.Name, p.JSONPath)
			if err != nil {
				return nil, fmt.Errorf("cmd: sitemap property %s: %w", p.Name, err)
			}
			config.PropertyProviders = append(config.PropertyProviders, provider)
		case p.Summary != "":
			summary := sitemap.NewSummary(p.Name, p.Summary, p.MaxLength)
			summary.Format = p.Format
			config.PropertyProviders = append(config.PropertyProviders, summary)
		default:
			config.PropertyProviders = append(config.PropertyProviders, sitemap.Static{Name: p.Name, Value: p.Value})
		}
	}

	return sitemap.New(config, repo), nil
}
