package records

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fetalcare/fetalcare/internal/platform/fetalapi"
	"github.com/fetalcare/fetalcare/internal/platform/notification"
)

// StatusSource reports remote liveness and aggregate counts.
type StatusSource interface {
	Health(ctx context.Context) (*fetalapi.HealthResponse, error)
	Stats(ctx context.Context) (*fetalapi.Stats, error)
}

// StatsView is the summary panel above the table.
type StatsView struct {
	Total    int `json:"total"`
	Normal   int `json:"normal"`
	AtRisk   int `json:"at_risk"`
	Critical int `json:"critical"`
}

// RenderStats flattens remote stats into the summary panel.
func RenderStats(s *fetalapi.Stats) StatsView {
	if s == nil {
		return StatsView{}
	}
	return StatsView{
		Total:    s.TotalRecords,
		Normal:   s.Count(fetalapi.HealthNormal),
		AtRisk:   s.Count(fetalapi.HealthAtRisk),
		Critical: s.Count(fetalapi.HealthCritical),
	}
}

// Dashboard is the whole records screen: connection indicator, summary
// panel, and table.
type Dashboard struct {
	Connection fetalapi.Connection `json:"connection"`
	Stats      *StatsView          `json:"stats,omitempty"`
	Records    View                `json:"records"`
}

// Service runs the screen-level flows that span more than the Browser.
type Service struct {
	status StatusSource
	logger zerolog.Logger
}

// NewService creates a Service.
func NewService(status StatusSource, logger zerolog.Logger) *Service {
	return &Service{status: status, logger: logger.With().Str("component", "records").Logger()}
}

// Stats loads the summary panel.
func (s *Service) Stats(ctx context.Context) (StatsView, error) {
	st, err := s.status.Stats(ctx)
	if err != nil {
		return StatsView{}, fmt.Errorf("records: stats: %w", err)
	}
	return RenderStats(st), nil
}

// Initialize probes the remote service and, when it is healthy, loads the
// summary panel and refetches the browser's current page. When it is not,
// the table is left empty and an error toast is emitted.
func (s *Service) Initialize(ctx context.Context, b *Browser, n notification.Notifier) Dashboard {
	if _, err := s.status.Health(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("remote service unreachable")
		if n != nil {
			n.Notify(notification.LevelError, "Erro ao conectar com a API. Verifique se o servidor está rodando.")
		}
		snap := b.Snapshot()
		snap.State = StateEmpty
		snap.Page = Page{Records: []ExamRecord{}}
		return Dashboard{Connection: fetalapi.ConnectionStatus(false), Records: Render(snap)}
	}
	if n != nil {
		n.Notify(notification.LevelSuccess, "Sistema conectado com sucesso!")
	}

	d := Dashboard{Connection: fetalapi.ConnectionStatus(true)}
	if st, err := s.Stats(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("stats load failed")
		if n != nil {
			n.Notify(notification.LevelError, "Erro ao carregar estatísticas")
		}
	} else {
		d.Stats = &st
	}

	snap, _ := b.Refresh(ctx)
	d.Records = Render(snap)
	return d
}
