package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/langlyai/langly/internal/catalog"
	"github.com/langlyai/langly/internal/content"
	"github.com/langlyai/langly/internal/lessons"
	"github.com/langlyai/langly/internal/llm"
	"github.com/langlyai/langly/internal/store"
)

var lessonCmd = &cobra.Command{
	Use:   "lesson",
	Short: "Generate, inspect and validate lessons",
}

var lessonGetCmd = &cobra.Command{
	Use:   "get <level> <day>",
	Short: "Print a lesson, generating its content if missing or stale",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, day, err := parseLessonKey(args[0], args[1])
		if err != nil {
			return err
		}
		lang, _ := cmd.Flags().GetString("lang")
		asJSON, _ := cmd.Flags().GetBool("json")
		regenerate, _ := cmd.Flags().GetBool("regenerate")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		svc, err := newLessonService(cmd.Context(), s, true)
		if err != nil {
			return err
		}

		ctx, cancel := generationContext(cmd.Context())
		defer cancel()

		var lesson *lessons.Lesson
		if regenerate {
			lesson, err = svc.Regenerate(ctx, level, day)
		} else {
			lesson, err = svc.EnsureContent(ctx, level, day)
		}
		if err != nil {
			printGenerationError(cmd.ErrOrStderr(), err)
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(lesson)
		}
		printLesson(out, lesson, lang)
		return nil
	},
}

var lessonListCmd = &cobra.Command{
	Use:   "list <level>",
	Short: "List stored lessons for a level",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := content.ParseLevel(args[0])
		if err != nil {
			return err
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		svc, err := newLessonService(cmd.Context(), s, false)
		if err != nil {
			return err
		}
		list, err := svc.List(cmd.Context(), level)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintf(out, "No lessons stored for %s. Run 'langly lesson seed' first.\n", level)
			return nil
		}

		fmt.Fprintf(out, "%-4s  %-44s  %-7s  %-24s  %s\n", "Day", "Title", "Status", "Model", "Generated")
		fmt.Fprintln(out, strings.Repeat("─", 100))
		for _, l := range list {
			model, generated := "", ""
			if l.Generation != nil {
				model = l.Generation.Model
				generated = l.Generation.UpdatedAt.Local().Format("2006-01-02 15:04")
			}
			fmt.Fprintf(out, "%-4d  %-44s  %-7s  %-24s  %s\n",
				l.Day, truncate(l.Title, 44), lessonStatus(l, appCfg.Lessons.PromptVersion),
				truncate(model, 24), generated)
		}
		fmt.Fprintf(out, "\n%d lessons\n", len(list))
		return nil
	},
}

var lessonLevelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "List levels that have stored lessons",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		svc, err := newLessonService(cmd.Context(), s, false)
		if err != nil {
			return err
		}
		levels, err := svc.Levels(cmd.Context())
		if err != nil {
			return err
		}
		for _, l := range levels {
			fmt.Fprintln(cmd.OutOrStdout(), l)
		}
		return nil
	},
}

var lessonSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create title-only records for every catalog lesson and fix wrong titles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var level content.Level
		if raw, _ := cmd.Flags().GetString("level"); raw != "" {
			l, err := content.ParseLevel(raw)
			if err != nil {
				return err
			}
			level = l
		}

		cat, err := loadCatalog()
		if err != nil {
			return err
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		svc, err := newLessonService(cmd.Context(), s, false)
		if err != nil {
			return err
		}
		report, err := svc.SeedTitles(cmd.Context(), cat.Entries(level))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Inserted: %d  Retitled: %d  Unchanged: %d\n",
			report.Inserted, report.UpdatedTitles, report.Skipped)
		return nil
	},
}

var lessonValidateCmd = &cobra.Command{
	Use:   "validate <file|->",
	Short: "Validate a lesson content JSON document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			raw []byte
			err error
		)
		if args[0] == "-" {
			raw, err = io.ReadAll(cmd.InOrStdin())
		} else {
			raw, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}

		result, err := content.ValidateJSON(raw)
		if err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}
		out := cmd.OutOrStdout()
		if result.OK {
			fmt.Fprintln(out, "OK")
			return nil
		}
		for _, fe := range result.Errors {
			fmt.Fprintf(out, "  %s\n", fe)
		}
		return fmt.Errorf("%d validation errors", len(result.Errors))
	},
}

func init() {
	lessonGetCmd.Flags().String("lang", "both", "Language to print: fr, en or both")
	lessonGetCmd.Flags().Bool("json", false, "Print the lesson as JSON")
	lessonGetCmd.Flags().Bool("regenerate", false, "Generate new content even if the stored content is fresh")
	lessonSeedCmd.Flags().String("level", "", "Only seed one level (A1, A2, B1, B2)")

	lessonCmd.AddCommand(lessonGetCmd)
	lessonCmd.AddCommand(lessonListCmd)
	lessonCmd.AddCommand(lessonLevelsCmd)
	lessonCmd.AddCommand(lessonSeedCmd)
	lessonCmd.AddCommand(lessonValidateCmd)
}

// newLessonService wires the lesson service. The provider is only built
// when withProvider is set, so read-only commands work without API keys.
func newLessonService(ctx context.Context, s *store.Store, withProvider bool) (*lessons.Service, error) {
	cat, err := loadCatalog()
	if err != nil {
		return nil, err
	}

	var provider llm.Provider
	if withProvider {
		if err := appCfg.LLM.Validate(); err != nil {
			return nil, fmt.Errorf("LLM provider not configured: %w", err)
		}
		provider, err = llm.NewProvider(ctx, appCfg.LLM, s.EventRepo(), appLog)
		if err != nil {
			return nil, fmt.Errorf("create LLM provider: %w", err)
		}
	}

	return lessons.NewService(provider, s.LessonRepo(), cat, cat, appCfg.Lessons.Service(), appLog), nil
}

func loadCatalog() (*catalog.Catalog, error) {
	if path := appCfg.Lessons.CatalogFile; path != "" {
		return catalog.LoadFile(path)
	}
	return catalog.Default()
}

// generationContext bounds a generation with the configured LLM timeout.
func generationContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if d := appCfg.LLM.Timeout; d > 0 {
		return context.WithTimeout(parent, d)
	}
	return context.WithCancel(parent)
}

func parseLessonKey(rawLevel, rawDay string) (content.Level, int, error) {
	level, err := content.ParseLevel(rawLevel)
	if err != nil {
		return "", 0, err
	}
	day, err := strconv.Atoi(rawDay)
	if err != nil || day < 1 {
		return "", 0, fmt.Errorf("invalid day %q: must be a positive integer", rawDay)
	}
	return level, day, nil
}

func lessonStatus(l *lessons.Lesson, version int) string {
	switch {
	case l.Content == nil:
		return "empty"
	case lessons.Fresh(l, version):
		return "fresh"
	default:
		return "stale"
	}
}

func printLesson(w io.Writer, l *lessons.Lesson, lang string) {
	fmt.Fprintf(w, "%s %d: %s\n\n", l.Level, l.Day, l.Title)
	md := l.Content.RenderMarkdown
	switch lang {
	case "fr", "en":
		fmt.Fprintln(w, md.In(lang))
	default:
		fmt.Fprintln(w, md.FR)
		fmt.Fprintln(w)
		fmt.Fprintln(w, strings.Repeat("─", 60))
		fmt.Fprintln(w)
		fmt.Fprintln(w, md.EN)
	}
}

// printGenerationError writes the details a caller needs to act on a failed
// generation: every validation error, or the raw text that did not parse.
func printGenerationError(w io.Writer, err error) {
	var schemaErr *lessons.ErrGenerationSchema
	var parseErr *lessons.ErrGenerationParse
	switch {
	case errors.As(err, &schemaErr):
		fmt.Fprintf(w, "Generated content failed validation (%d errors):\n", len(schemaErr.Errors))
		for _, fe := range schemaErr.Errors {
			fmt.Fprintf(w, "  %s\n", fe)
		}
		fmt.Fprintf(w, "\nPayload:\n%s\n\n", schemaErr.Payload)
	case errors.As(err, &parseErr):
		fmt.Fprintln(w, "Generated content is not valid JSON. Raw response:")
		fmt.Fprintf(w, "%s\n\n", parseErr.Raw)
	}
}
