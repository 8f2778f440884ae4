package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/pkg/serverutils"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/internal/repository/unitofwork"
	"ai-tutor-be/pkg/apperror"
	"ai-tutor-be/pkg/store"
	"ai-tutor-be/pkg/tutor/cache"
	"ai-tutor-be/pkg/tutor/complexity"
	"ai-tutor-be/pkg/tutor/events"
	"ai-tutor-be/pkg/tutor/invoker"
	"ai-tutor-be/pkg/tutor/persona"
	"ai-tutor-be/pkg/tutor/prompt"
	"ai-tutor-be/pkg/tutor/retrieval"
	"ai-tutor-be/pkg/tutor/session"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	tutorLogModule  = "TUTOR"
	tutorTraceScope = "ai-tutor.service"

	// ReasonQueryMode is recorded when a query asks for a different mode than the session's
	ReasonQueryMode = "mode requested by query"
)

var fallbackFollowUps = map[store.Mode][]string{
	store.ModeTutor: {
		"Can you show me another example?",
		"How does this connect to what we covered before?",
		"Can you quiz me on this?",
	},
	store.ModeInterviewer: {
		"Can you ask me a follow-up question?",
		"How would you rate my answer?",
		"What would a strong answer include?",
	},
	store.ModeMentor: {
		"What should I learn next?",
		"How can I practice this?",
		"What mistakes should I watch out for?",
	},
}

type ITutorService interface {
	Handle(ctx context.Context, req *dto.AskRequest) (*store.AIResponse, error)
	SwitchMode(ctx context.Context, req *dto.SwitchModeRequest) (*dto.SwitchModeResponse, error)
	GetSession(ctx context.Context, userID, sessionID string) (*dto.SessionResponse, error)
	ListTransitions(ctx context.Context, userID string, filter dto.TransitionFilter) ([]*dto.TransitionResponse, error)
}

// TutorDeps are the collaborators of the request cycle
type TutorDeps struct {
	UowFactory unitofwork.RepositoryFactory
	Sessions   *session.Manager
	Retriever  *retrieval.Retriever
	Analyzer   *complexity.Analyzer
	Registry   *persona.Registry
	Composer   *prompt.Composer
	Invoker    *invoker.Invoker
	Cache      *cache.Cache
	Events     events.Publisher
	Logger     logger.ILogger
}

type tutorService struct {
	TutorDeps
	now func() time.Time
}

func NewTutorService(deps TutorDeps) ITutorService {
	if deps.Events == nil {
		deps.Events = events.NewBusPublisher(nil, deps.Logger)
	}
	return &tutorService{TutorDeps: deps, now: time.Now}
}

type handleOutcome struct {
	resp *store.AIResponse
	err  error
}

// Handle answers one query. The cycle runs on a context detached from the caller's cancellation,
// so a disconnect only abandons delivery.
func (s *tutorService) Handle(ctx context.Context, req *dto.AskRequest) (*store.AIResponse, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, apperror.NewValidation("query", "is required")
	}
	q := req.ToQuery()

	done := make(chan handleOutcome, 1)
	go func() {
		resp, err := s.handle(context.WithoutCancel(ctx), q)
		done <- handleOutcome{resp: resp, err: err}
	}()

	select {
	case out := <-done:
		return out.resp, out.err
	case <-ctx.Done():
		s.Logger.Warn(tutorLogModule, "Caller went away, finishing request in background", map[string]interface{}{
			"user_id":    q.UserID,
			"session_id": q.SessionID,
		})
		return nil, ctx.Err()
	}
}

func (s *tutorService) handle(ctx context.Context, q *store.Query) (resp *store.AIResponse, err error) {
	ctx, span := otel.Tracer(tutorTraceScope).Start(ctx, "tutor.handle", trace.WithAttributes(
		attribute.String("tutor.session_id", q.SessionID),
		attribute.String("tutor.mode", string(q.Mode)),
	))
	defer func() { endSpan(span, err) }()

	start := s.now()
	uow := s.UowFactory.NewUnitOfWork(ctx)

	profile, err := s.loadProfile(ctx, uow, q.UserID)
	if err != nil {
		return nil, err
	}

	sess, created, err := s.Sessions.LoadOrCreate(ctx, q.UserID, q.SessionID, q.Mode)
	if err != nil {
		return nil, err
	}

	history := q.ConversationHistory
	if len(history) == 0 {
		history = sess.History
	}

	if entry, hit := s.Cache.Get(ctx, q.UserID, q.Text); hit {
		// the key ignores mode, so the hit reports the mode the caller is in now
		cached := entry.Response
		cached.Mode = q.Mode
		cached.Cached = true
		cached.EstimatedCost = 0
		span.SetAttributes(attribute.Bool("tutor.cache_hit", true))

		s.commit(ctx, uow, q, sess, created, profile, &cached)
		s.logDone(q, &cached, start)
		return &cached, nil
	}

	resp, err = s.answer(ctx, q, profile, history)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Bool("tutor.cache_hit", false),
		attribute.String("tutor.tier", string(resp.ModelTier)),
		attribute.Int("tutor.sources", len(resp.Sources)),
	)

	s.Cache.Put(ctx, q.UserID, q.Text, *resp, 0)
	s.commit(ctx, uow, q, sess, created, profile, resp)
	s.logDone(q, resp, start)
	return resp, nil
}

// answer runs retrieval and complexity analysis in parallel, then composes and invokes
func (s *tutorService) answer(ctx context.Context, q *store.Query, profile *store.UserProfile, history []store.ConversationTurn) (*store.AIResponse, error) {
	personality, err := s.Registry.ConfigFor(q.Mode, profile.SkillLevel, profile.ExplanationStyle)
	if err != nil {
		return nil, apperror.NewValidation("mode", err.Error())
	}

	var (
		found retrieval.Result
		score float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		found = s.Retriever.Retrieve(gctx, q.UserID, q.Text, 0)
		return nil
	})
	g.Go(func() error {
		score = s.Analyzer.Score(q.Text, store.LastTurns(history, prompt.MaxHistoryTurns))
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	tier := s.Analyzer.SelectTier(score)
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Bool("tutor.retrieval_empty", found.Empty),
		attribute.Bool("tutor.retrieval_degraded", found.Degraded),
	)

	payload := s.Composer.Compose(q.Mode, q.Language, personality, found.Sources, history, q.Text)

	result, err := s.Invoker.Invoke(ctx, payload, tier)
	if err != nil {
		if found.Degraded && apperror.IsTransient(err) {
			var t *apperror.TransientBackendError
			errors.As(err, &t)
			return nil, &apperror.PersistentBackendError{
				Backend: t.Backend,
				Cause:   apperror.CauseExhausted,
				Err:     err,
			}
		}
		return nil, err
	}

	text, followUps := prompt.ExtractFollowUps(result.Text)
	if len(followUps) == 0 {
		followUps = append([]string(nil), fallbackFollowUps[q.Mode]...)
	}
	text = prompt.EnsureDisclaimer(text, payload.Grounded)

	sources := found.Sources
	if sources == nil {
		sources = []store.ContentSource{}
	}

	return &store.AIResponse{
		Text:                text,
		Mode:                q.Mode,
		Confidence:          confidence(sources, found.Degraded),
		Sources:             sources,
		FollowUpSuggestions: followUps,
		ModelTier:           tier,
		Cached:              false,
		EstimatedCost:       s.Invoker.EstimateCost(result.Usage, tier),
	}, nil
}

// commit records the exchange once an answer exists. Failures are logged; the answer is still delivered.
func (s *tutorService) commit(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	q *store.Query,
	sess *store.Session,
	created bool,
	profile *store.UserProfile,
	resp *store.AIResponse,
) {
	if !created && sess.Mode != q.Mode {
		if _, err := s.recordTransition(ctx, uow, sess, profile, q.Mode, ReasonQueryMode); err != nil {
			s.Logger.Error(tutorLogModule, "Failed to record mode change", map[string]interface{}{
				"session_id": q.SessionID,
				"error":      err.Error(),
			})
		}
	}

	now := s.now()
	userTurn := store.ConversationTurn{Role: store.RoleUser, Content: q.Text, Timestamp: now}
	assistantTurn := store.ConversationTurn{Role: store.RoleAssistant, Content: resp.Text, Timestamp: now}
	topic := topicOf(resp.Sources)

	if err := s.Sessions.AppendExchange(ctx, sess, userTurn, assistantTurn, topic); err != nil {
		s.Logger.Error(tutorLogModule, "Failed to append exchange to session", map[string]interface{}{
			"session_id": q.SessionID,
			"error":      err.Error(),
		})
		return
	}

	s.Events.PublishTurnCompleted(ctx, q, resp, topic)
}

// SwitchMode records the transition with the profile's last mode in one unit of work, then moves the session.
func (s *tutorService) SwitchMode(ctx context.Context, req *dto.SwitchModeRequest) (*dto.SwitchModeResponse, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}
	to, err := store.ParseMode(req.Mode)
	if err != nil {
		return nil, apperror.NewValidation("mode", err.Error())
	}

	uow := s.UowFactory.NewUnitOfWork(ctx)
	profile, err := s.loadProfile(ctx, uow, req.UserID)
	if err != nil {
		return nil, err
	}

	sess, _, err := s.Sessions.LoadOrCreate(ctx, req.UserID, req.SessionID, profile.LastMode)
	if err != nil {
		return nil, err
	}
	from := sess.Mode

	if !s.Registry.IsValidTransition(from, to) {
		return nil, apperror.NewValidation("mode", fmt.Sprintf("cannot switch from %s to %s", from, to))
	}

	transition, err := s.recordTransition(ctx, uow, sess, profile, to, strings.TrimSpace(req.Reason))
	if err != nil {
		return nil, err
	}

	return &dto.SwitchModeResponse{
		TransitionID: transition.ID,
		FromMode:     from,
		ToMode:       to,
		Message:      s.Registry.TransitionMessage(from, to, profile.DisplayName),
	}, nil
}

// recordTransition writes the audit record and the profile's LastMode atomically, then updates the session mode
func (s *tutorService) recordTransition(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	sess *store.Session,
	profile *store.UserProfile,
	to store.Mode,
	reason string,
) (*store.ModeTransition, error) {
	transition := &store.ModeTransition{
		ID:        uuid.NewString(),
		UserID:    sess.UserID,
		SessionID: sess.SessionID,
		FromMode:  sess.Mode,
		ToMode:    to,
		Timestamp: s.now(),
		Reason:    reason,
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ModeTransitionRepository().Create(ctx, transition); err != nil {
		return nil, fmt.Errorf("record transition: %w", err)
	}

	updated := *profile
	updated.LastMode = to
	if err := uow.UserProfileRepository().Upsert(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	profile.LastMode = to

	if err := s.Sessions.SetMode(ctx, sess, to); err != nil {
		return nil, err
	}

	s.Logger.Info(tutorLogModule, "Mode switched", map[string]interface{}{
		"session_id": sess.SessionID,
		"from":       string(transition.FromMode),
		"to":         string(to),
		"reason":     reason,
	})
	s.Events.PublishModeSwitched(ctx, transition)
	return transition, nil
}

func (s *tutorService) GetSession(ctx context.Context, userID, sessionID string) (*dto.SessionResponse, error) {
	sess, err := s.Sessions.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	return dto.NewSessionResponse(sess), nil
}

func (s *tutorService) ListTransitions(ctx context.Context, userID string, filter dto.TransitionFilter) ([]*dto.TransitionResponse, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperror.NewValidation("user_id", "is required")
	}
	if err := serverutils.ValidateRequest(filter); err != nil {
		return nil, err
	}

	specs := []specification.Specification{specification.ByUserID{UserID: userID}}
	if filter.SessionID != "" {
		specs = append(specs, specification.BySessionID{SessionID: filter.SessionID})
	}
	specs = append(specs, specification.OrderBy{Field: "created_at"})
	if filter.Limit > 0 || filter.Offset > 0 {
		specs = append(specs, specification.Pagination{Limit: filter.Limit, Offset: filter.Offset})
	}

	uow := s.UowFactory.NewUnitOfWork(ctx)
	transitions, err := uow.ModeTransitionRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}
	return dto.NewTransitionResponses(transitions), nil
}

func (s *tutorService) loadProfile(ctx context.Context, uow unitofwork.UnitOfWork, userID string) (*store.UserProfile, error) {
	profile, err := uow.UserProfileRepository().FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return store.DefaultProfile(userID), nil
	}
	return profile, nil
}

func (s *tutorService) logDone(q *store.Query, resp *store.AIResponse, start time.Time) {
	s.Logger.Info(tutorLogModule, "Query answered", map[string]interface{}{
		"user_id":        q.UserID,
		"session_id":     q.SessionID,
		"mode":           string(resp.Mode),
		"tier":           string(resp.ModelTier),
		"cached":         resp.Cached,
		"sources":        len(resp.Sources),
		"estimated_cost": resp.EstimatedCost,
		"elapsed_ms":     s.now().Sub(start).Milliseconds(),
	})
}

// confidence is 0.5 plus half the mean relevance when grounded, a flat low value otherwise
func confidence(sources []store.ContentSource, degraded bool) float64 {
	if len(sources) == 0 {
		if degraded {
			return 0.25
		}
		return 0.35
	}
	var sum float64
	for _, src := range sources {
		sum += src.RelevanceScore
	}
	return 0.5 + 0.5*(sum/float64(len(sources)))
}

func topicOf(sources []store.ContentSource) string {
	if len(sources) > 0 && sources[0].Metadata.Topic != "" {
		return sources[0].Metadata.Topic
	}
	return store.DefaultTopic
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
