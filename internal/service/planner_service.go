package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harborline/voyage-api/internal/dto"
	"github.com/harborline/voyage-api/internal/models"
	"github.com/harborline/voyage-api/internal/scheduler"
	appErrors "github.com/harborline/voyage-api/pkg/errors"
)

type plannerCatalogBuilder interface {
	BuildCatalog(ctx context.Context, userID string) (*scheduler.Catalog, error)
}

type plannerAttendanceRepository interface {
	ListUIDs(ctx context.Context, userID string) ([]string, error)
	ApplyDiff(ctx context.Context, userID string, added, removed, hideSeries []string) error
}

type plannerPreferenceReader interface {
	Get(ctx context.Context, userID string) (*models.Preferences, error)
	Invalidate(ctx context.Context, userID string)
}

type plannerCache interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// PlannerConfig governs session behaviour.
type PlannerConfig struct {
	SessionTTL       time.Duration
	MaxDisplaceDepth int
	CompanionRules   []scheduler.CompanionRule
}

// PlannerService drives the conflict-resolution wizard: it owns the
// in-memory session store, feeds the engine its read-only inputs and commits
// the outcome transactionally.
type PlannerService struct {
	events     plannerCatalogBuilder
	attendance plannerAttendanceRepository
	prefs      plannerPreferenceReader
	cache      plannerCache
	validator  *validator.Validate
	logger     *zap.Logger
	companions *scheduler.CompanionResolver
	config     PlannerConfig
	store      *sessionStore
}

// NewPlannerService wires the scheduling session dependencies.
func NewPlannerService(
	events plannerCatalogBuilder,
	attendance plannerAttendanceRepository,
	prefs plannerPreferenceReader,
	cache plannerCache,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg PlannerConfig,
) *PlannerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	return &PlannerService{
		events:     events,
		attendance: attendance,
		prefs:      prefs,
		cache:      cache,
		validator:  validate,
		logger:     logger,
		companions: scheduler.NewCompanionResolver(cfg.CompanionRules),
		config:     cfg,
		store:      newSessionStore(cfg.SessionTTL),
	}
}

// StartSession opens an additive session, runs greedy placement and returns
// the first render (CONFLICTS or PREVIEW).
func (s *PlannerService) StartSession(ctx context.Context, userID string, req dto.StartSessionRequest) (*scheduler.RenderModel, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	cfg, err := s.buildEngineConfig(ctx, userID)
	if err != nil {
		return nil, err
	}

	session := scheduler.NewSession(uuid.NewString(), userID, cfg)
	session.Run(req.SeriesNames, req.IncludeOptional)

	s.store.Save(session)
	s.logger.Info("scheduling session started",
		zap.String("session_id", session.ID),
		zap.String("user_id", userID),
		zap.String("step", string(session.Step)))
	return session.Render(), nil
}

// GetSession returns the current render model.
func (s *PlannerService) GetSession(ctx context.Context, userID, id string) (*scheduler.RenderModel, error) {
	entry, err := s.acquire(userID, id)
	if err != nil {
		return nil, err
	}
	defer entry.mu.Unlock()
	return entry.session.Render(), nil
}

// SubmitChoices applies the user's per-series decisions. A validation
// failure is returned separately so the handler can surface the conflicting
// pairs without touching session state.
func (s *PlannerService) SubmitChoices(ctx context.Context, userID, id string, req dto.SubmitChoicesRequest) (*scheduler.RenderModel, *scheduler.ValidationError, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid choices payload")
	}

	entry, err := s.acquire(userID, id)
	if err != nil {
		return nil, nil, err
	}
	defer entry.mu.Unlock()

	choices := make([]scheduler.Choice, 0, len(req.Choices))
	for _, c := range req.Choices {
		choices = append(choices, scheduler.Choice{
			SeriesName:   c.SeriesName,
			Action:       scheduler.ChoiceAction(c.Action),
			UID:          c.UID,
			AllowOverlap: c.AllowOverlap,
		})
	}

	if verr := entry.session.SubmitChoices(choices); verr != nil {
		return nil, verr, nil
	}
	return entry.session.Render(), nil, nil
}

// Back restores the state captured before the last choice submission.
func (s *PlannerService) Back(ctx context.Context, userID, id string) (*scheduler.RenderModel, error) {
	entry, err := s.acquire(userID, id)
	if err != nil {
		return nil, err
	}
	defer entry.mu.Unlock()

	if !entry.session.Back() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "nothing to go back to")
	}
	return entry.session.Render(), nil
}

// StartAlternative opens a nested reschedule session for a committed event
// blocking the parent's conflict resolution. The parent stays untouched in
// the store; completing or cancelling the child simply returns to it.
func (s *PlannerService) StartAlternative(ctx context.Context, userID, parentID string, req dto.StartAlternativeRequest) (*scheduler.RenderModel, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid alternative payload")
	}

	parent, err := s.acquire(userID, parentID)
	if err != nil {
		return nil, err
	}
	parent.mu.Unlock()

	cfg, err := s.buildEngineConfig(ctx, userID)
	if err != nil {
		return nil, err
	}

	child, ok := scheduler.NewRescheduleSession(uuid.NewString(), userID, req.TargetUID, cfg)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
	}
	child.ParentID = parentID

	s.store.Save(child)
	return child.Render(), nil
}

// Apply commits a session in PREVIEW: the attendance diff is persisted in
// one transaction, committed series are hidden and the session is discarded.
func (s *PlannerService) Apply(ctx context.Context, userID, id string) (*scheduler.Diff, error) {
	entry, err := s.acquire(userID, id)
	if err != nil {
		return nil, err
	}
	defer entry.mu.Unlock()

	session := entry.session
	if session.Step != scheduler.StepPreview {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "session still has unresolved conflicts")
	}

	diff, _, ok := session.Apply()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "session already applied")
	}

	added := make([]string, 0, len(diff.Added))
	for _, inst := range diff.Added {
		added = append(added, inst.UID)
	}
	removed := make([]string, 0, len(diff.Removed))
	for _, inst := range diff.Removed {
		removed = append(removed, inst.UID)
	}

	if err := s.attendance.ApplyDiff(ctx, userID, added, removed, session.CommittedSeries()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule")
	}

	s.prefs.Invalidate(ctx, userID)
	s.invalidateAgenda(ctx, userID)
	s.store.Delete(id)

	s.logger.Info("scheduling session applied",
		zap.String("session_id", id),
		zap.String("user_id", userID),
		zap.Int("added", len(added)),
		zap.Int("removed", len(removed)),
		zap.Strings("skipped", diff.Skipped))
	return diff, nil
}

// Cancel discards a session. Cancelling is always safe; nothing was
// persisted before Apply.
func (s *PlannerService) Cancel(ctx context.Context, userID, id string) error {
	entry, err := s.acquire(userID, id)
	if err != nil {
		return err
	}
	entry.mu.Unlock()
	s.store.Delete(id)
	return nil
}

// Reschedule is the quick single-event move: it relocates the target to a
// conflict-free slot of the same series or refuses without touching anything.
func (s *PlannerService) Reschedule(ctx context.Context, userID string, req dto.RescheduleRequest) (*scheduler.AlternativeResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule payload")
	}

	cfg, err := s.buildEngineConfig(ctx, userID)
	if err != nil {
		return nil, err
	}

	result, _ := scheduler.FindAlternative(req.UID, userID, cfg)
	if !result.Success {
		return result, nil
	}

	added := make([]string, 0, len(result.Diff.Added))
	for _, inst := range result.Diff.Added {
		added = append(added, inst.UID)
	}
	removed := make([]string, 0, len(result.Diff.Removed))
	for _, inst := range result.Diff.Removed {
		removed = append(removed, inst.UID)
	}

	if err := s.attendance.ApplyDiff(ctx, userID, added, removed, nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit reschedule")
	}
	s.invalidateAgenda(ctx, userID)

	s.logger.Info("event rescheduled",
		zap.String("user_id", userID),
		zap.String("from", req.UID),
		zap.String("to", result.NewUID))
	return result, nil
}

// Sweep evicts expired sessions; wired to a cron schedule.
func (s *PlannerService) Sweep() int {
	evicted := s.store.Sweep()
	if evicted > 0 {
		s.logger.Info("expired scheduling sessions evicted", zap.Int("count", evicted))
	}
	return evicted
}

func (s *PlannerService) buildEngineConfig(ctx context.Context, userID string) (scheduler.Config, error) {
	catalog, err := s.events.BuildCatalog(ctx, userID)
	if err != nil {
		return scheduler.Config{}, err
	}
	attendance, err := s.attendance.ListUIDs(ctx, userID)
	if err != nil {
		return scheduler.Config{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	pref, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return scheduler.Config{}, err
	}

	return scheduler.Config{
		Catalog:           catalog,
		Companions:        s.companions,
		Attendance:        attendance,
		HiddenSeries:      pref.HiddenSeries,
		HiddenUIDs:        pref.HiddenUIDs,
		BlacklistedSeries: pref.BlacklistedSeries,
		OptionalSeries:    pref.OptionalSeries,
		MaxDisplaceDepth:  s.config.MaxDisplaceDepth,
	}, nil
}

// acquire looks a session up, checks ownership and returns it with its mutex
// held. Each session is owned by one request at a time.
func (s *PlannerService) acquire(userID, id string) (*sessionEntry, error) {
	entry, ok := s.store.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrSessionExpired, "")
	}
	if entry.session.UserID != userID {
		// Do not reveal other users' session ids.
		return nil, appErrors.Clone(appErrors.ErrSessionExpired, "")
	}
	entry.mu.Lock()
	return entry, nil
}

func (s *PlannerService) invalidateAgenda(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("agenda:%s*", userID)); err != nil {
		s.logger.Warn("failed to invalidate agenda cache", zap.Error(err))
	}
}

// --- Session store ---

type sessionEntry struct {
	session  *scheduler.Session
	mu       sync.Mutex
	lastSeen time.Time
}

type sessionStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]*sessionEntry
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{
		ttl:   ttl,
		items: make(map[string]*sessionEntry),
	}
}

func (s *sessionStore) Save(session *scheduler.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[session.ID] = &sessionEntry{session: session, lastSeen: time.Now().UTC()}
}

func (s *sessionStore) Get(id string) (*sessionEntry, bool) {
	s.mu.RLock()
	entry, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Since(entry.lastSeen) > s.ttl {
		s.Delete(id)
		return nil, false
	}
	s.mu.Lock()
	entry.lastSeen = time.Now().UTC()
	s.mu.Unlock()
	return entry, true
}

func (s *sessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

func (s *sessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	now := time.Now().UTC()
	for id, entry := range s.items {
		if now.Sub(entry.lastSeen) > s.ttl {
			delete(s.items, id)
			evicted++
		}
	}
	return evicted
}
