package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dixitakash2514/argos-mob-proposal/config"
	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"github.com/dixitakash2514/argos-mob-proposal/internal/layout"
	"github.com/dixitakash2514/argos-mob-proposal/internal/render"
	"github.com/dixitakash2514/argos-mob-proposal/internal/render/html"
	"github.com/dixitakash2514/argos-mob-proposal/internal/render/pdf"
	"github.com/spf13/cobra"
)

var (
	renderFormat string
	renderFile   string
	renderOutput string
)

var renderCmd = &cobra.Command{
	Use:   "render [proposal-id]",
	Short: "Render a proposal document",
	Long: `Renders the confirmed sections of a proposal. The proposal is read from the
database by ID, or from a JSON file with --file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "markdown", "Output format: markdown, html, pdf or text")
	renderCmd.Flags().StringVar(&renderFile, "file", "", "Read the proposal from a JSON file instead of the database")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Write to this file instead of stdout")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	if (len(args) == 0) == (renderFile == "") {
		return fmt.Errorf("specify either a proposal id or --file")
	}

	p, cfg, err := loadProposal(args)
	if err != nil {
		return err
	}

	doc := render.Compose(p, layout.Options{AccentColor: cfg.Proposal.AccentColor})
	if cfg.Proposal.CompanyName != "" {
		doc.Company = cfg.Proposal.CompanyName
	}
	doc.Watermark = cfg.Proposal.Watermark

	var buf bytes.Buffer
	if err := renderTo(&buf, renderFormat, p, doc); err != nil {
		return err
	}

	if renderOutput == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(renderOutput, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", renderOutput, err)
	}
	cmd.Printf("Wrote %s (%d bytes)\n", renderOutput, buf.Len())
	return nil
}

func loadProposal(args []string) (*domain.Proposal, *config.Config, error) {
	if renderFile != "" {
		data, err := os.ReadFile(renderFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", renderFile, err)
		}
		var p domain.Proposal
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s: %w", renderFile, err)
		}
		p.Normalize(time.Now())
		return &p, config.GetConfig(), nil
	}

	repo, cfg, err := openRepository()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	p, err := repo.Get(context.Background(), args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load proposal %s: %w", args[0], err)
	}
	return p, cfg, nil
}

// renderTo markdown 输出原始章节文本，其余格式走对应的绘制器
func renderTo(w io.Writer, format string, p *domain.Proposal, doc render.Document) error {
	switch strings.ToLower(format) {
	case "markdown", "md":
		for _, meta := range domain.Sections() {
			s := p.Section(meta.Key)
			if s == nil || (meta.Key != domain.SectionCoverPage && !p.IsConfirmed(meta.Key)) {
				continue
			}
			fmt.Fprintf(w, "<!-- %s -->\n%s\n\n", meta.Key, render.SectionMarkdown(meta.Key, s.Data))
		}
		return nil
	case "html":
		return html.Render(w, doc)
	case "pdf":
		return pdf.Render(w, doc)
	case "text", "txt":
		_, err := io.WriteString(w, doc.PlainText())
		return err
	}
	return fmt.Errorf("unknown format %q", format)
}
