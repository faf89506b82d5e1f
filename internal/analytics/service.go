package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
)

const (
	defaultWindow       = 30 * 24 * time.Hour
	maxWindow           = 366 * 24 * time.Hour
	defaultLeaderboard  = 10
	maxLeaderboardLimit = 50
)

// reportRepository is the aggregate-query surface the service needs.
type reportRepository interface {
	ReferralPipeline(ctx context.Context, practiceID uuid.UUID, from, to time.Time) ([]StatusBucket, error)
	CallVolume(ctx context.Context, practiceID uuid.UUID, from, to time.Time) ([]OutcomeBucket, error)
	PartnerLeaderboard(ctx context.Context, practiceID uuid.UUID, from, to time.Time, limit int) ([]PartnerRow, error)
	ReferralsByDay(ctx context.Context, practiceID uuid.UUID, from, to time.Time) ([]DayBucket, error)
	MediaUsage(ctx context.Context, practiceID uuid.UUID) ([]KindUsage, error)
}

// Service assembles the practice dashboard reports.
type Service struct {
	repo reportRepository
}

// NewService constructs the analytics service.
func NewService(repo reportRepository) *Service {
	return &Service{repo: repo}
}

// Window is the report date range. A zero Window defaults to the last 30 days.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) resolve() (time.Time, time.Time, error) {
	from, to := w.From, w.To
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-defaultWindow)
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "report window start must precede its end")
	}
	if to.Sub(from) > maxWindow {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "report window cannot exceed one year")
	}
	return from, to, nil
}

// PipelineReport summarizes the referral intake pipeline.
type PipelineReport struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	Statuses      []StatusBucket  `json:"statuses"`
	TotalCount    int64           `json:"total_count"`
	TotalValue    decimal.Decimal `json:"total_value"`
	WonValue      decimal.Decimal `json:"won_value"`
	ConversionPct float64         `json:"conversion_pct"`
}

// ReferralPipeline builds the pipeline report for the window. Conversion is
// completed referrals over all referrals received in the window.
func (s *Service) ReferralPipeline(ctx context.Context, practiceID uuid.UUID, window Window) (*PipelineReport, error) {
	from, to, err := window.resolve()
	if err != nil {
		return nil, err
	}

	buckets, err := s.repo.ReferralPipeline(ctx, practiceID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to build pipeline report")
	}

	report := &PipelineReport{From: from, To: to, Statuses: buckets}
	var completed int64
	for _, b := range buckets {
		report.TotalCount += b.Count
		report.TotalValue = report.TotalValue.Add(b.Value)
		if b.Status == enums.ReferralStatusCompleted.String() {
			completed = b.Count
			report.WonValue = b.Value
		}
	}
	if report.TotalCount > 0 {
		report.ConversionPct = float64(completed) / float64(report.TotalCount) * 100
	}
	return report, nil
}

// CallReport summarizes call volume and outcomes.
type CallReport struct {
	From            time.Time       `json:"from"`
	To              time.Time       `json:"to"`
	Outcomes        []OutcomeBucket `json:"outcomes"`
	TotalCalls      int64           `json:"total_calls"`
	TotalTalkTime   int64           `json:"total_talk_time_seconds"`
	BookedCalls     int64           `json:"booked_calls"`
	BookedRatePct   float64         `json:"booked_rate_pct"`
	AvgDurationSecs int64           `json:"avg_duration_seconds"`
}

// CallVolume builds the call report for the window.
func (s *Service) CallVolume(ctx context.Context, practiceID uuid.UUID, window Window) (*CallReport, error) {
	from, to, err := window.resolve()
	if err != nil {
		return nil, err
	}

	buckets, err := s.repo.CallVolume(ctx, practiceID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to build call report")
	}

	report := &CallReport{From: from, To: to, Outcomes: buckets}
	for _, b := range buckets {
		report.TotalCalls += b.Count
		report.TotalTalkTime += b.DurationSeconds
		if b.Outcome == enums.CallOutcomeBooked.String() {
			report.BookedCalls = b.Count
		}
	}
	if report.TotalCalls > 0 {
		report.BookedRatePct = float64(report.BookedCalls) / float64(report.TotalCalls) * 100
		report.AvgDurationSecs = report.TotalTalkTime / report.TotalCalls
	}
	return report, nil
}

// LeaderboardReport ranks referring partners for the window.
type LeaderboardReport struct {
	From     time.Time    `json:"from"`
	To       time.Time    `json:"to"`
	Partners []PartnerRow `json:"partners"`
}

// PartnerLeaderboard builds the partner ranking for the window.
func (s *Service) PartnerLeaderboard(ctx context.Context, practiceID uuid.UUID, window Window, limit int) (*LeaderboardReport, error) {
	from, to, err := window.resolve()
	if err != nil {
		return nil, err
	}
	if limit < 1 || limit > maxLeaderboardLimit {
		limit = defaultLeaderboard
	}

	rows, err := s.repo.PartnerLeaderboard(ctx, practiceID, from, to, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to build partner leaderboard")
	}
	return &LeaderboardReport{From: from, To: to, Partners: rows}, nil
}

// UsageReport breaks the media library down by kind.
type UsageReport struct {
	Kinds      []KindUsage `json:"kinds"`
	TotalCount int64       `json:"total_count"`
	TotalBytes int64       `json:"total_bytes"`
}

// MediaUsage builds the media library usage report. Unlike the windowed
// reports it reflects the library as it stands now, so it takes no range.
func (s *Service) MediaUsage(ctx context.Context, practiceID uuid.UUID) (*UsageReport, error) {
	rows, err := s.repo.MediaUsage(ctx, practiceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to build media usage report")
	}

	report := &UsageReport{Kinds: rows}
	for _, row := range rows {
		report.TotalCount += row.Count
		report.TotalBytes += row.TotalBytes
	}
	return report, nil
}

// TrendReport is the daily referral intake series for trend charts. Days with
// no referrals are filled with zero counts so charts render a continuous axis.
type TrendReport struct {
	From time.Time   `json:"from"`
	To   time.Time   `json:"to"`
	Days []DayBucket `json:"days"`
}

// ReferralTrend builds the daily intake series for the window.
func (s *Service) ReferralTrend(ctx context.Context, practiceID uuid.UUID, window Window) (*TrendReport, error) {
	from, to, err := window.resolve()
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ReferralsByDay(ctx, practiceID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to build referral trend")
	}

	counts := make(map[time.Time]int64, len(rows))
	for _, row := range rows {
		counts[row.Day.UTC().Truncate(24*time.Hour)] = row.Count
	}

	var days []DayBucket
	for day := from.UTC().Truncate(24 * time.Hour); day.Before(to); day = day.Add(24 * time.Hour) {
		days = append(days, DayBucket{Day: day, Count: counts[day]})
	}
	return &TrendReport{From: from, To: to, Days: days}, nil
}
