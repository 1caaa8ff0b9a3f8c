package advice

import (
	"context"
	"fmt"
	"log/slog"

	"dodam/internal/domain"
)

// Retriever is the retrieval-facing dependency of the advice service.
type Retriever interface {
	Retrieve(ctx context.Context, query, category, section string) (string, error)
}

// Cache stores finished advice keyed by its request identity. A miss is
// (zero, false, nil); cache failures are soft.
type Cache interface {
	Get(ctx context.Context, category, section, summary string) (domain.Advice, bool, error)
	Set(ctx context.Context, category, section, summary string, adv domain.Advice) error
}

// Request is one advice query. Category is required; Section defaults
// to the configured coping-steps section; one of UserText/ChatID must
// identify a summary source.
type Request struct {
	Category string
	Section  string
	UserText string
	ChatID   int64
}

// Service runs the full advice pipeline: summary resolution, cache
// lookup, grounded retrieval, generation, cache fill.
type Service struct {
	resolver       *SummaryResolver
	retriever      Retriever
	generator      *Generator
	cache          Cache
	defaultSection string
	log            *slog.Logger
}

func NewService(resolver *SummaryResolver, retriever Retriever, generator *Generator, cache Cache, defaultSection string, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		resolver:       resolver,
		retriever:      retriever,
		generator:      generator,
		cache:          cache,
		defaultSection: defaultSection,
		log:            log,
	}
}

func (s *Service) Advise(ctx context.Context, req Request) (domain.Advice, error) {
	if req.Category == "" {
		return domain.Advice{}, fmt.Errorf("%w: category required", domain.ErrMissingInput)
	}
	section := req.Section
	if section == "" {
		section = s.defaultSection
	}
	summary, err := s.resolver.Resolve(ctx, req.UserText, req.ChatID)
	if err != nil {
		return domain.Advice{}, err
	}

	if s.cache != nil {
		if adv, ok, err := s.cache.Get(ctx, req.Category, section, summary); err != nil {
			s.log.Warn("advice cache lookup failed", "err", err)
		} else if ok {
			return adv, nil
		}
	}

	docContext, err := s.retriever.Retrieve(ctx, summary, req.Category, section)
	if err != nil {
		return domain.Advice{}, err
	}
	adv, err := s.generator.Generate(ctx, summary, req.Category, docContext, section)
	if err != nil {
		return domain.Advice{}, err
	}

	// Fallback results carry diagnostic raw text; keep those out of the
	// cache so a later identical request gets another chance.
	if s.cache != nil && adv.Raw == "" {
		if err := s.cache.Set(ctx, req.Category, section, summary, adv); err != nil {
			s.log.Warn("advice cache store failed", "err", err)
		}
	}
	return adv, nil
}
