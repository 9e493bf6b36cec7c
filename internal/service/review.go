package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mailqc/qc-server/internal/analysis"
	"github.com/mailqc/qc-server/internal/repository/models"
)

var (
	ErrStorageFailure = errors.New("storage failure")
	ErrInvalidCheck   = errors.New("invalid quality check")
	ErrAgentExists    = errors.New("agent already exists")
)

// ReviewService runs the criterion analyzers and manages agents and saved
// quality checks.
type ReviewService struct {
	store  QualityStore
	logger *zap.Logger
	now    func() time.Time
}

// NewReviewService creates a new ReviewService instance.
func NewReviewService(store QualityStore, logger *zap.Logger) *ReviewService {
	if store == nil {
		panic("store must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	return &ReviewService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Evaluate scores an email against the four fixed criteria and derives
// overall feedback and recommendations.
func (s *ReviewService) Evaluate(email models.Email) Evaluation {
	content := email.Body

	tone := analysis.AnalyzeTone(content)
	clarity := analysis.AnalyzeClarity(content)
	grammar := analysis.CheckGrammar(content)
	structure := analysis.AnalyzeStructure(content)

	scores := []models.ScoreResult{
		{CriteriaID: models.CriteriaTone, Score: float64(tone.Score), Feedback: tone.Feedback},
		{CriteriaID: models.CriteriaClarity, Score: float64(clarity.Score), Feedback: clarity.Feedback},
		{CriteriaID: models.CriteriaGrammar, Score: float64(grammar.Score), Feedback: grammar.Feedback, Breakdown: grammar.Suggestions},
		{CriteriaID: models.CriteriaStructure, Score: structure.Score, Feedback: structure.Feedback},
	}

	return Evaluation{
		Scores:          scores,
		OverallScore:    OverallScore(scores),
		GeneralFeedback: generalFeedback(scores),
		Recommendations: recommendations(scores),
	}
}

// AnalyzeTemplate reports template compliance for an email body.
func (s *ReviewService) AnalyzeTemplate(content string) analysis.TemplateAnalysisResult {
	return analysis.AnalyzeTemplateConsistency(content)
}

// OverallScore is the rounded equal-weighted average of the four criterion
// scores. The configurable weights shown in settings are intentionally not
// applied here; see DESIGN.md.
func OverallScore(scores []models.ScoreResult) int {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, sc := range scores {
		sum += sc.Score
	}
	return int(math.Round(sum / float64(len(scores))))
}

func averageScore(scores []models.ScoreResult) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, sc := range scores {
		sum += sc.Score
	}
	return sum / float64(len(scores))
}

func generalFeedback(scores []models.ScoreResult) string {
	avg := averageScore(scores)
	switch {
	case avg >= 8:
		return "This is a high quality email that meets our standards."
	case avg < 6:
		return "This email needs improvement before it meets our standards."
	default:
		return "This email is acceptable but has room for improvement."
	}
}

func recommendations(scores []models.ScoreResult) []string {
	recs := make([]string, 0, len(scores))
	for _, sc := range scores {
		switch sc.CriteriaID {
		case models.CriteriaTone:
			if sc.Score < 7 {
				recs = append(recs, "Use more professional and courteous language.")
			}
			if sc.Score < 5 {
				recs = append(recs, "Avoid urgency and exclamation; keep the register formal.")
			}
		case models.CriteriaClarity:
			if sc.Score < 7 {
				recs = append(recs, "Shorten sentences and prefer everyday words.")
			}
			if sc.Score < 5 {
				recs = append(recs, "Add a clear next-steps section so the reader knows what to do.")
			}
		case models.CriteriaGrammar:
			if sc.Score < 7 {
				recs = append(recs, "Proofread for spelling and grammar before sending.")
			}
			if sc.Score < 5 {
				recs = append(recs, "Run the email through a spell checker and remove informal wording.")
			}
		case models.CriteriaStructure:
			if sc.Score <= 7.5 {
				recs = append(recs, "Include all structural elements: greeting, header, signature and footer.")
			}
			if sc.Score <= 5 {
				recs = append(recs, "Open with a proper greeting and close with a signature block.")
			}
			if sc.Score <= 2.5 {
				recs = append(recs, "Rebuild the email from the approved template; most structure is missing.")
			}
		}
	}
	return recs
}

// validateCheck ensures a quality check carries exactly one score per fixed
// criterion.
func validateCheck(qc models.QualityCheck) error {
	ids := models.CriteriaIDs()
	if len(qc.Scores) != len(ids) {
		return fmt.Errorf("%w: expected %d scores, got %d", ErrInvalidCheck, len(ids), len(qc.Scores))
	}
	seen := make(map[string]bool, len(ids))
	for _, sc := range qc.Scores {
		seen[sc.CriteriaID] = true
	}
	for _, id := range ids {
		if !seen[id] {
			return fmt.Errorf("%w: missing score for criterion %q", ErrInvalidCheck, id)
		}
	}
	return nil
}

// SaveQualityCheck upserts a check: an existing id is replaced in place,
// a new one is prepended to the history. An unknown agent name triggers
// implicit agent creation.
func (s *ReviewService) SaveQualityCheck(ctx context.Context, qc models.QualityCheck) (models.QualityCheck, error) {
	if err := validateCheck(qc); err != nil {
		return models.QualityCheck{}, err
	}

	if qc.ID == "" {
		qc.ID = "qc-" + strconv.FormatInt(s.now().UnixMilli(), 10)
	}
	if qc.Date == "" {
		qc.Date = s.now().UTC().Format(time.RFC3339)
	}
	if qc.Status == "" {
		qc.Status = "completed"
	}
	qc.OverallScore = OverallScore(qc.Scores)

	if qc.AgentID == "" && qc.AgentName != "" {
		agent, err := s.resolveAgent(ctx, qc.AgentName)
		if err != nil {
			return models.QualityCheck{}, err
		}
		qc.AgentID = agent.ID
	}

	checks, err := s.store.GetQualityChecks(ctx)
	if err != nil {
		return models.QualityCheck{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	replaced := false
	for i, existing := range checks {
		if existing.ID == qc.ID {
			checks[i] = qc
			replaced = true
			break
		}
	}
	if !replaced {
		checks = append([]models.QualityCheck{qc}, checks...)
	}

	if err := s.store.SaveQualityChecks(ctx, checks); err != nil {
		return models.QualityCheck{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	s.logger.Info("quality check saved",
		zap.String("id", qc.ID),
		zap.String("agent_id", qc.AgentID),
		zap.Int("overall_score", qc.OverallScore),
		zap.Bool("replaced", replaced))

	return qc, nil
}

// GetQualityChecks returns the stored check history, newest first.
func (s *ReviewService) GetQualityChecks(ctx context.Context) ([]models.QualityCheck, error) {
	checks, err := s.store.GetQualityChecks(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return checks, nil
}

// GetAgents returns all stored agents.
func (s *ReviewService) GetAgents(ctx context.Context) ([]models.Agent, error) {
	agents, err := s.store.GetAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return agents, nil
}

// AddAgent stores a new agent, filling in the generated id and the derived
// default email and avatar URL.
func (s *ReviewService) AddAgent(ctx context.Context, partial models.Agent) (models.Agent, error) {
	if strings.TrimSpace(partial.Name) == "" {
		return models.Agent{}, fmt.Errorf("%w: agent name is required", ErrInvalidCheck)
	}

	agents, err := s.store.GetAgents(ctx)
	if err != nil {
		return models.Agent{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	for _, a := range agents {
		if strings.EqualFold(a.Name, partial.Name) {
			return models.Agent{}, fmt.Errorf("%w: %q", ErrAgentExists, partial.Name)
		}
	}

	agent := partial
	agent.ID = strconv.FormatInt(s.now().UnixMilli(), 10)
	if agent.Email == "" {
		agent.Email = DefaultAgentEmail(agent.Name)
	}
	if agent.Avatar == "" {
		agent.Avatar = DefaultAgentAvatar(agent.Name)
	}

	agents = append(agents, agent)
	if err := s.store.SaveAgents(ctx, agents); err != nil {
		return models.Agent{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	s.logger.Info("agent added", zap.String("id", agent.ID), zap.String("name", agent.Name))
	return agent, nil
}

// RemoveAgent deletes an agent by id, reporting whether it existed.
func (s *ReviewService) RemoveAgent(ctx context.Context, id string) (bool, error) {
	agents, err := s.store.GetAgents(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	kept := agents[:0]
	removed := false
	for _, a := range agents {
		if a.ID == id {
			removed = true
			continue
		}
		kept = append(kept, a)
	}
	if !removed {
		return false, nil
	}

	if err := s.store.SaveAgents(ctx, kept); err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return true, nil
}

// GetSettings returns the raw settings document for a namespace.
func (s *ReviewService) GetSettings(ctx context.Context, namespace string) (json.RawMessage, error) {
	raw, err := s.store.GetSettings(ctx, namespace)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return raw, nil
}

// SaveSettings stores a settings document under a namespace.
func (s *ReviewService) SaveSettings(ctx context.Context, namespace string, value json.RawMessage) error {
	if err := s.store.SaveSettings(ctx, namespace, value); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return nil
}

// DeleteSettings removes a namespace's settings document, reporting whether
// one existed.
func (s *ReviewService) DeleteSettings(ctx context.Context, namespace string) (bool, error) {
	deleted, err := s.store.DeleteSettings(ctx, namespace)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if deleted {
		s.logger.Info("settings deleted", zap.String("namespace", namespace))
	}
	return deleted, nil
}

// ListSettingsNamespaces returns the namespaces holding stored settings.
func (s *ReviewService) ListSettingsNamespaces(ctx context.Context) ([]string, error) {
	namespaces, err := s.store.ListSettingsNamespaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return namespaces, nil
}

// resolveAgent finds an agent by case-insensitive name, creating one on the
// fly when no match exists.
func (s *ReviewService) resolveAgent(ctx context.Context, name string) (models.Agent, error) {
	agents, err := s.store.GetAgents(ctx)
	if err != nil {
		return models.Agent{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	for _, a := range agents {
		if strings.EqualFold(a.Name, name) {
			return a, nil
		}
	}
	return s.AddAgent(ctx, models.Agent{Name: name})
}

// DefaultAgentEmail derives the fallback address from the agent's name,
// e.g. "Jane Doe" -> "jane.doe@example.com".
func DefaultAgentEmail(name string) string {
	parts := strings.Fields(strings.ToLower(name))
	return strings.Join(parts, ".") + "@example.com"
}

// DefaultAgentAvatar builds a deterministic avatar URL from the name.
func DefaultAgentAvatar(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name)
}
