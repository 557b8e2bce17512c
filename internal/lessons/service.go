package lessons

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/langlyai/langly/internal/catalog"
	"github.com/langlyai/langly/internal/content"
	"github.com/langlyai/langly/internal/llm"
	"github.com/langlyai/langly/internal/logger"
	"github.com/langlyai/langly/internal/store"
)

// Service keeps stored lesson content complete and current, generating it
// through an LLM provider when it is missing or stale.
//
// Concurrent requests for the same slot within one Service share a single
// provider call. Separate processes are not coordinated; the last save wins.
type Service struct {
	provider   llm.Provider
	repo       store.LessonRepo
	titles     catalog.TitleFinder
	blueprints catalog.BlueprintFinder
	cfg        Config
	log        *logger.Logger

	inflight singleflight.Group
}

// NewService creates a lesson service. titles and blueprints may be nil; a
// nil log discards output.
func NewService(
	provider llm.Provider,
	repo store.LessonRepo,
	titles catalog.TitleFinder,
	blueprints catalog.BlueprintFinder,
	cfg Config,
	log *logger.Logger,
) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		provider:   provider,
		repo:       repo,
		titles:     titles,
		blueprints: blueprints,
		cfg:        cfg,
		log:        log,
	}
}

// EnsureContent returns the lesson for (level, day) with fresh content,
// creating the record and generating content as needed. On any generation
// failure the stored record is left as it was.
//
// The provider call is the only slow step. EnsureContent imposes no
// timeout of its own; callers bound it through ctx.
func (s *Service) EnsureContent(ctx context.Context, level content.Level, day int) (*Lesson, error) {
	return s.do(ctx, "ensure", level, day, false)
}

// Regenerate replaces the lesson's content even if it is fresh. The new
// payload passes the same validation gate as EnsureContent.
func (s *Service) Regenerate(ctx context.Context, level content.Level, day int) (*Lesson, error) {
	return s.do(ctx, "regenerate", level, day, true)
}

func (s *Service) do(ctx context.Context, op string, level content.Level, day int, force bool) (*Lesson, error) {
	if err := validateKey(level, day); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%s:%s/%d", op, level, day)
	v, err, shared := s.inflight.Do(key, func() (any, error) {
		return s.ensure(ctx, level, day, force)
	})
	if shared {
		s.log.Debug("joined in-flight lesson request", "level", level, "day", day, "op", op)
	}
	if err != nil {
		return nil, err
	}
	// Callers that joined the flight each get their own Lesson. Content
	// is shared and must be treated as read-only.
	l := *v.(*Lesson)
	return &l, nil
}

func (s *Service) ensure(ctx context.Context, level content.Level, day int, force bool) (*Lesson, error) {
	rec, err := s.loadOrCreate(ctx, level, day)
	if err != nil {
		return nil, err
	}
	lesson := s.toLesson(rec)

	if !force && Fresh(lesson, s.cfg.PromptVersion) {
		s.log.Debug("lesson content is fresh", "level", level, "day", day)
		return lesson, nil
	}

	runID := llm.RunIDFrom(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = llm.WithRunID(ctx, runID)
	}
	purpose := llm.PurposeLessonContent
	if force {
		purpose = llm.PurposeRegenerate
	}
	ctx = llm.WithPurpose(ctx, purpose)

	log := s.log.With("level", level, "day", day, "run_id", runID)
	log.Info("generating lesson content", "title", rec.Title, "prompt_version", s.cfg.PromptVersion)

	generated, model, err := s.generate(ctx, level, day, rec.Title)
	if err != nil {
		log.Warn("lesson generation failed", "error", err)
		return nil, err
	}

	payload, err := json.Marshal(generated)
	if err != nil {
		return nil, fmt.Errorf("encode lesson content: %w", err)
	}
	meta := &store.GenerationMeta{
		UpdatedAt:     s.cfg.now(),
		Model:         model,
		PromptVersion: s.cfg.PromptVersion,
	}
	rec.Content = payload
	rec.Generation = meta
	if err := s.repo.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save lesson %s day %d: %w", level, day, err)
	}
	log.Info("lesson content saved", "model", model)

	lesson.Content = generated
	lesson.Generation = meta
	lesson.UpdatedAt = rec.UpdatedAt
	return lesson, nil
}

// generate asks the provider for content and checks it. It returns the
// decoded content and the model that produced it.
func (s *Service) generate(ctx context.Context, level content.Level, day int, title string) (*content.LessonContent, string, error) {
	var bp *catalog.Blueprint
	if s.blueprints != nil {
		if found, ok := s.blueprints.FindBlueprint(title); ok {
			bp = found
		}
	}

	userMsg, err := buildLessonUserMessage(level, day, title, bp)
	if err != nil {
		return nil, "", err
	}

	req := llm.Request{
		System: buildSystemPrompt(level),
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: userMsg},
		},
		Schema:      content.Schema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	}

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return nil, "", fmt.Errorf("lesson generation: %w", err)
	}

	result, err := content.ValidateJSON(resp.Content)
	if err != nil {
		return nil, "", &ErrGenerationParse{Raw: resp.Content, Err: err}
	}
	if !result.OK {
		return nil, "", &ErrGenerationSchema{Errors: result.Errors, Payload: resp.Content}
	}

	generated, err := content.Decode(resp.Content)
	if err != nil {
		return nil, "", &ErrGenerationParse{Raw: resp.Content, Err: err}
	}

	model := resp.Model
	if model == "" {
		model = s.provider.ModelID()
	}
	return generated, model, nil
}

func (s *Service) loadOrCreate(ctx context.Context, level content.Level, day int) (*store.LessonRecord, error) {
	rec, err := s.repo.Get(ctx, string(level), day)
	if err != nil {
		return nil, fmt.Errorf("load lesson %s day %d: %w", level, day, err)
	}
	if rec != nil {
		return rec, nil
	}

	title, err := s.resolveTitle(level, day)
	if err != nil {
		return nil, err
	}
	rec = &store.LessonRecord{Level: string(level), DayNumber: day, Title: title}
	err = s.repo.Create(ctx, rec)
	if errors.Is(err, store.ErrDuplicateLesson) {
		// Another writer created the slot between Get and Create.
		rec, err = s.repo.Get(ctx, string(level), day)
		if err == nil && rec == nil {
			err = store.ErrLessonMissing
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create lesson %s day %d: %w", level, day, err)
	}
	s.log.Info("lesson record created", "level", level, "day", day, "title", rec.Title)
	return rec, nil
}

func (s *Service) resolveTitle(level content.Level, day int) (string, error) {
	if s.titles != nil {
		if title, ok := s.titles.FindTitle(level, day); ok && title != "" {
			return title, nil
		}
	}
	if !s.cfg.AllowPlaceholderTitles {
		return "", &ErrLessonNotFound{Level: level, Day: day}
	}
	return PlaceholderTitle(level, day), nil
}

// toLesson decodes a stored record. Stored content that no longer decodes
// is dropped so the slot regenerates.
func (s *Service) toLesson(rec *store.LessonRecord) *Lesson {
	l, err := lessonFromRecord(rec)
	if err != nil {
		s.log.Warn("discarding unreadable lesson content", "level", rec.Level, "day", rec.DayNumber, "error", err)
	}
	return l
}

// List returns the lessons stored for level, ordered by day.
func (s *Service) List(ctx context.Context, level content.Level) ([]*Lesson, error) {
	if !level.Valid() {
		return nil, fmt.Errorf("%w: level %q", ErrInvalidLessonKey, level)
	}
	recs, err := s.repo.ListByLevel(ctx, string(level))
	if err != nil {
		return nil, fmt.Errorf("list lessons for %s: %w", level, err)
	}
	out := make([]*Lesson, 0, len(recs))
	for _, rec := range recs {
		out = append(out, s.toLesson(rec))
	}
	return out, nil
}

// Levels returns the levels that have at least one stored lesson.
func (s *Service) Levels(ctx context.Context) ([]content.Level, error) {
	raw, err := s.repo.Levels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}
	out := make([]content.Level, len(raw))
	for i, l := range raw {
		out[i] = content.Level(l)
	}
	return out, nil
}

// SeedTitles makes the store agree with entries on titles: missing slots
// are created title-only and wrong titles are corrected. Content is never
// touched.
func (s *Service) SeedTitles(ctx context.Context, entries []catalog.Entry) (SeedReport, error) {
	var report SeedReport
	for _, e := range entries {
		if validateKey(e.Level, e.Day) != nil || e.Title == "" {
			s.log.Warn("skipping invalid catalog entry", "level", e.Level, "day", e.Day)
			report.Skipped++
			continue
		}

		rec, err := s.repo.Get(ctx, string(e.Level), e.Day)
		if err != nil {
			return report, fmt.Errorf("load lesson %s day %d: %w", e.Level, e.Day, err)
		}

		switch {
		case rec == nil:
			err := s.repo.Create(ctx, &store.LessonRecord{Level: string(e.Level), DayNumber: e.Day, Title: e.Title})
			if errors.Is(err, store.ErrDuplicateLesson) {
				report.Skipped++
				continue
			}
			if err != nil {
				return report, fmt.Errorf("create lesson %s day %d: %w", e.Level, e.Day, err)
			}
			report.Inserted++
		case rec.Title != e.Title:
			if err := s.repo.SetTitle(ctx, rec.ID, e.Title); err != nil {
				return report, fmt.Errorf("retitle lesson %s day %d: %w", e.Level, e.Day, err)
			}
			report.UpdatedTitles++
		default:
			report.Skipped++
		}
	}
	s.log.Info("seeded lesson titles",
		"inserted", report.Inserted, "updated", report.UpdatedTitles, "skipped", report.Skipped)
	return report, nil
}

func validateKey(level content.Level, day int) error {
	if !level.Valid() {
		return fmt.Errorf("%w: level %q", ErrInvalidLessonKey, level)
	}
	if day < 1 {
		return fmt.Errorf("%w: day %d", ErrInvalidLessonKey, day)
	}
	return nil
}
