package report

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/erp/reportdispatch/internal/domain/report"
	"github.com/erp/reportdispatch/internal/infrastructure/logger"
	"github.com/erp/reportdispatch/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultScheduleTimeout = 2 * time.Minute
	defaultLockTTL         = 15 * time.Minute
	// persistTimeout bounds the post-delivery writes, which outlive the schedule deadline
	persistTimeout = 10 * time.Second
)

// DispatchOption configures optional DispatchService collaborators
type DispatchOption func(*DispatchService)

// WithArchive stores every delivered PDF in archive
func WithArchive(archive ReportArchive) DispatchOption {
	return func(s *DispatchService) {
		s.archive = archive
	}
}

// WithLock serializes runs through lock, held for at most ttl
func WithLock(lock DispatchLock, ttl time.Duration) DispatchOption {
	return func(s *DispatchService) {
		s.lock = lock
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// WithMetrics records outcomes and durations
func WithMetrics(metrics DispatchMetrics) DispatchOption {
	return func(s *DispatchService) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// WithScheduleTimeout bounds the render, merge and send steps of one schedule
func WithScheduleTimeout(d time.Duration) DispatchOption {
	return func(s *DispatchService) {
		if d > 0 {
			s.scheduleTimeout = d
		}
	}
}

// DispatchService evaluates every active schedule and sends the due ones
type DispatchService struct {
	schedules report.ScheduleRepository
	snapshots report.SnapshotRepository
	renderer  *ReportRenderer
	assembler *BatchAssembler
	composer  *EmailComposer
	mailer    Mailer

	archive         ReportArchive
	lock            DispatchLock
	lockTTL         time.Duration
	metrics         DispatchMetrics
	scheduleTimeout time.Duration
	logger          *zap.Logger

	mu   sync.RWMutex
	last *report.Summary
}

// NewDispatchService creates a new DispatchService
func NewDispatchService(
	schedules report.ScheduleRepository,
	snapshots report.SnapshotRepository,
	renderer *ReportRenderer,
	assembler *BatchAssembler,
	composer *EmailComposer,
	mailer Mailer,
	logger *zap.Logger,
	opts ...DispatchOption,
) *DispatchService {
	s := &DispatchService{
		schedules:       schedules,
		snapshots:       snapshots,
		renderer:        renderer,
		assembler:       assembler,
		composer:        composer,
		mailer:          mailer,
		lockTTL:         defaultLockTTL,
		metrics:         noopMetrics{},
		scheduleTimeout: defaultScheduleTimeout,
		logger:          logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunDispatch processes every active schedule once, sequentially, in persisted order.
// Only lock, schedule loading and snapshot loading failures abort the run;
// per-schedule failures become error outcomes.
func (s *DispatchService) RunDispatch(ctx context.Context, now time.Time) (*report.Summary, error) {
	started := time.Now()
	runID := uuid.NewString()
	ctx, log := logger.WithRunID(ctx, s.logger, runID)

	ctx, span := telemetry.StartSpan(ctx, "dispatch.run",
		telemetry.WithAttribute(telemetry.SpanAttrRunID, runID),
	)
	defer span.End()

	if s.lock != nil {
		token, acquired, err := s.lock.TryAcquire(ctx, s.lockTTL)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("acquire dispatch lock: %w", err)
		}
		if !acquired {
			log.Warn("dispatch run skipped: lock held by another run")
			return nil, ErrDispatchInProgress
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
			defer cancel()
			if err := s.lock.Release(releaseCtx, token); err != nil {
				log.Warn("failed to release dispatch lock", zap.Error(err))
			}
		}()
	}

	records, err := s.schedules.FindActive(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrLoadSchedules, err)
		telemetry.RecordError(span, err)
		log.Error("dispatch run aborted", zap.Error(err))
		return nil, err
	}

	summary := report.NewSummary(now, len(records))
	telemetry.SetAttributes(span, telemetry.SpanAttrActiveCount, len(records))

	if len(records) > 0 {
		products, err := s.snapshots.LoadProducts(ctx)
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrLoadSnapshot, err)
			telemetry.RecordError(span, err)
			log.Error("dispatch run aborted", zap.Error(err))
			return nil, err
		}
		snapshot := NewRunSnapshot(products, s.snapshots, now)

		for i := range records {
			outcome := s.dispatchSchedule(ctx, &records[i], now, snapshot)
			summary.Record(outcome)
			s.metrics.RecordOutcome(ctx, outcome.Kind, outcome.Duration)
			logOutcome(log, outcome)
		}
	}

	elapsed := time.Since(started)
	s.metrics.RecordRun(ctx, summary, elapsed)
	telemetry.SetAttributes(span, telemetry.SpanAttrSentCount, summary.SentCount)
	s.setLastSummary(summary)

	log.Info("dispatch run finished",
		zap.Int("total_active", summary.TotalActive),
		zap.Int("sent", summary.SentCount),
		zap.Int("skipped", len(summary.Skipped)),
		zap.Int("errors", summary.Count(report.OutcomeError)),
		zap.Duration("duration", elapsed),
	)
	return summary, nil
}

// LastSummary returns the summary of the most recent completed run
func (s *DispatchService) LastSummary() (*report.Summary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.last != nil
}

func (s *DispatchService) setLastSummary(summary *report.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = summary
}

// dispatchSchedule evaluates and, when due, delivers one schedule.
// It never panics and never returns without an outcome. Once the email is
// accepted the outcome stays sent, whatever happens while recording it.
func (s *DispatchService) dispatchSchedule(ctx context.Context, rec *report.ScheduleRecord, now time.Time, snapshot *RunSnapshot) (out report.Outcome) {
	started := time.Now()
	out = report.Outcome{ScheduleID: rec.ID, ScheduleName: rec.Name}

	ctx, span := telemetry.StartSpan(ctx, "dispatch.schedule",
		telemetry.WithAttribute(telemetry.SpanAttrScheduleID, rec.ID),
		telemetry.WithAttribute(telemetry.SpanAttrScheduleName, rec.Name),
		telemetry.WithAttribute(telemetry.SpanAttrFrequency, string(rec.Frequency)),
		telemetry.WithAttribute(telemetry.SpanAttrItemCount, len(rec.Items)),
	)
	defer func() {
		if r := recover(); r != nil {
			if out.Kind == report.OutcomeSent {
				logger.L(ctx).Error("panic after report was delivered",
					zap.String("schedule_id", rec.ID.String()),
					zap.Any("panic", r),
				)
			} else {
				out.Kind = report.OutcomeError
				out.Err = fmt.Errorf("panic while dispatching schedule: %v", r)
			}
		}
		out.Duration = time.Since(started)
		telemetry.SetAttributes(span, telemetry.SpanAttrOutcome, string(out.Kind))
		telemetry.RecordError(span, out.Err)
		span.End()
	}()

	schedule, err := rec.Restore()
	if err != nil {
		out.Kind = report.OutcomeError
		out.Err = err
		return out
	}
	if !report.IsDue(schedule, now) {
		out.Kind = report.OutcomeSkippedNotDue
		return out
	}
	if report.AlreadySentToday(schedule, now) {
		out.Kind = report.OutcomeSkippedAlreadySent
		return out
	}

	deliverCtx, cancel := context.WithTimeout(ctx, s.scheduleTimeout)
	defer cancel()

	doc, email, err := s.deliver(deliverCtx, schedule, now, snapshot)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			err = fmt.Errorf("%w: %w", ErrRunInterrupted, err)
		case errors.Is(deliverCtx.Err(), context.DeadlineExceeded):
			err = fmt.Errorf("%w after %s: %w", ErrScheduleTimeout, s.scheduleTimeout, err)
		}
		out.Kind = report.OutcomeError
		out.Err = err
		return out
	}

	out.Kind = report.OutcomeSent
	out.PageCount = doc.PageCount
	telemetry.SetAttributes(span, telemetry.SpanAttrPageCount, doc.PageCount)

	s.recordDelivery(ctx, schedule, now, doc, email)
	return out
}

// deliver renders and sends one due schedule
func (s *DispatchService) deliver(ctx context.Context, schedule *report.Schedule, now time.Time, snapshot *RunSnapshot) (*AssembledDocument, *OutboundEmail, error) {
	rc := RenderContext{Now: now, Location: schedule.Location, Snapshot: snapshot}
	doc, err := s.assembler.Assemble(ctx, schedule.Items, func(ctx context.Context, item report.ReportItem) (*RenderedReport, error) {
		return s.renderer.Render(ctx, item, rc)
	})
	if err != nil {
		return nil, nil, err
	}

	email, err := s.composer.Compose(schedule, doc, now)
	if err != nil {
		return nil, nil, err
	}
	if err := s.mailer.Send(ctx, email); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	return doc, email, nil
}

// recordDelivery persists the send and archives the PDF.
// Failures are logged only; the email is already out.
func (s *DispatchService) recordDelivery(ctx context.Context, schedule *report.Schedule, now time.Time, doc *AssembledDocument, email *OutboundEmail) {
	// the writes may outlive the schedule and run deadlines
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	var next *time.Time
	if at, ok := report.NextOccurrence(schedule, now); ok {
		next = &at
	}
	if err := s.schedules.MarkSent(persistCtx, schedule.ID, now, next); err != nil {
		logger.L(ctx).Error("report delivered but schedule state was not updated",
			zap.String("schedule_id", schedule.ID.String()),
			zap.String("schedule_name", schedule.Name),
			zap.Error(err),
		)
	}

	if s.archive != nil {
		local := now.In(schedule.Location)
		key := ArchiveKey(schedule, local, email.Attachments[0].Filename)
		if err := s.archive.Store(persistCtx, key, doc.PDF); err != nil {
			logger.L(ctx).Warn("failed to archive delivered report", zap.String("key", key), zap.Error(err))
		}
	}
}

func logOutcome(log *zap.Logger, o report.Outcome) {
	fields := []zap.Field{
		zap.String("schedule_id", o.ScheduleID.String()),
		zap.String("schedule_name", o.ScheduleName),
		zap.String("outcome", string(o.Kind)),
		zap.Duration("duration", o.Duration),
	}
	switch o.Kind {
	case report.OutcomeError:
		log.Error("scheduled report failed", append(fields, zap.Error(o.Err))...)
	case report.OutcomeSent:
		log.Info("scheduled report sent", append(fields, zap.Int("pages", o.PageCount))...)
	default:
		log.Debug("scheduled report skipped", fields...)
	}
}
