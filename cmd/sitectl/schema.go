package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jonesrussell/north-cloud/site-renderer/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/domain"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/render"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/theme"
	"github.com/spf13/cobra"
)

// errInvalidSchema is returned by validate when the file has problems.
var errInvalidSchema = errors.New("schema has problems")

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a page schema file",
		Long: `Decodes a page schema file the way the service does and reports every
problem found. Exits non-zero when the schema has any problem.

Example:
  sitectl validate pages/home.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, problems, err := loadSchema(args[0])
			if err != nil {
				return err
			}
			problems = append(problems, domain.ValidatePageSchema(schema)...)

			out := cmd.OutOrStdout()
			if len(problems) == 0 {
				fmt.Fprintf(out, "%s: ok (%d components)\n", args[0], len(schema.Components))
				return nil
			}
			for _, p := range problems {
				fmt.Fprintf(out, "%s: %s\n", args[0], p)
			}
			return fmt.Errorf("%w: %d found", errInvalidSchema, len(problems))
		},
	}
}

func newRenderCommand() *cobra.Command {
	var themeID string

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a page schema file to HTML",
		Long: `Renders a page schema file with one of the built-in themes and writes
the HTML document to stdout. Unknown components are skipped and logged.

Example:
  sitectl render pages/home.json --theme bold > home.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := theme.NewRegistry()
			if err != nil {
				return err
			}
			set, ok := registry.Get(themeID)
			if !ok {
				return fmt.Errorf("unknown theme %q (available: %v)", themeID, registry.Names())
			}

			schema, _, err := loadSchema(args[0])
			if err != nil {
				return err
			}

			page, err := render.NewRenderer(cliLogger()).Render(cmd.Context(), schema, set)
			if err != nil {
				return fmt.Errorf("render: %w", err)
			}
			return render.WriteHTML(cmd.OutOrStdout(), page)
		},
	}

	cmd.Flags().StringVarP(&themeID, "theme", "t", theme.Classic, "theme to render with")
	return cmd
}

func loadSchema(path string) (domain.PageSchema, []domain.Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.PageSchema{}, nil, fmt.Errorf("open schema: %w", err)
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return domain.PageSchema{}, nil, fmt.Errorf("read schema: %w", err)
	}
	return domain.DecodePageSchema(raw)
}

func cliLogger() logger.Logger {
	if !debug {
		return logger.NewNop()
	}
	log, err := logger.New(logger.Config{
		Level:       "debug",
		Format:      logger.FormatConsole,
		Development: true,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return logger.NewNop()
	}
	return log
}
