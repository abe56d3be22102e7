package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"ticket_exporter/internal/config"
	"ticket_exporter/internal/domain"
	"ticket_exporter/internal/service/mocks"
)

type ExportServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	source      *mocks.MockSource
	enricher    *mocks.MockEnricher
	checkpoints *mocks.MockCheckpointStore
	staging     *mocks.MockStagingStore
	audit       *mocks.MockAuditLog
	txManager   *mocks.MockTransactionManager
	publisher   *mocks.MockPublisher
	reports     *mocks.MockReportStore
	notifier    *mocks.MockNotifier

	service *ExportService
	cfg     config.ExportConfig
	logger  *slog.Logger

	windowStart time.Time
	windowEnd   time.Time
}

func (s *ExportServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.source = mocks.NewMockSource(s.ctrl)
	s.enricher = mocks.NewMockEnricher(s.ctrl)
	s.checkpoints = mocks.NewMockCheckpointStore(s.ctrl)
	s.staging = mocks.NewMockStagingStore(s.ctrl)
	s.audit = mocks.NewMockAuditLog(s.ctrl)
	s.txManager = mocks.NewMockTransactionManager(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)
	s.reports = mocks.NewMockReportStore(s.ctrl)
	s.notifier = mocks.NewMockNotifier(s.ctrl)

	s.cfg = config.ExportConfig{
		Interval:       5 * time.Minute,
		MaxPagesPerRun: 1,
	}

	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.source.EXPECT().ID().Return("zendesk").AnyTimes()

	s.service = NewExportService(
		s.source,
		s.enricher,
		s.checkpoints,
		s.staging,
		s.audit,
		s.txManager,
		s.publisher,
		s.reports,
		s.notifier,
		[]string{"ops@example.com"},
		s.logger,
		s.cfg,
	)

	s.windowStart = time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	s.windowEnd = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (s *ExportServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestExportServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ExportServiceTestSuite))
}

// expectTx makes WithTransaction run the body against the same context.
func (s *ExportServiceTestSuite) expectTx(ctx context.Context, times int) {
	s.txManager.EXPECT().WithTransaction(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	).Times(times)
}

func (s *ExportServiceTestSuite) TestExport_FreshWindowSingleSweep() {
	ctx := context.Background()

	tickets := []domain.Ticket{
		{
			ID:          101,
			CreatedAt:   s.windowStart.Add(5 * time.Second),
			RequesterID: 9,
			Channel:     "email",
			Subject:     "printer on fire",
		},
		{
			// Created exactly at the window end, so it belongs to the next
			// window and must be skipped.
			ID:          102,
			CreatedAt:   s.windowEnd,
			RequesterID: 10,
			Channel:     "web",
			Subject:     "too late",
		},
	}
	rows := []domain.TicketRow{
		{
			TicketID:       101,
			CreatedAt:      tickets[0].CreatedAt,
			RequesterEmail: "alice@example.com",
			Channel:        "email",
			Subject:        "printer on fire",
			BodyDigest:     "Requester: help",
		},
	}

	// seed, page commit, finalize teardown
	s.expectTx(ctx, 3)

	s.checkpoints.EXPECT().Get(ctx, "2025-12").Return(nil, nil)
	s.staging.EXPECT().Reset(ctx, "2025-12").Return(nil).Times(2)
	s.audit.EXPECT().Reset(ctx, "2025-12").Return(nil)
	s.checkpoints.EXPECT().Set(ctx, "2025-12", s.windowStart.Unix()).Return(nil)

	s.source.EXPECT().FetchPage(ctx, s.windowStart.Unix()).Return(&domain.Page{
		Tickets:     tickets,
		EndCursor:   s.windowEnd.Unix(),
		EndOfStream: true,
	}, nil)

	s.enricher.EXPECT().EnrichPage(ctx, tickets[:1]).Return(rows, nil)

	s.staging.EXPECT().Append(ctx, "2025-12", rows).Return(1, nil)
	s.checkpoints.EXPECT().Set(ctx, "2025-12", s.windowEnd.Unix()).Return(nil)
	s.audit.EXPECT().Append(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, entry domain.AuditEntry) error {
			s.Equal("2025-12", entry.WindowID)
			s.Equal(s.windowEnd.Unix(), entry.Cursor)
			s.Equal(2, entry.RecordsFetched)
			s.Equal(1, entry.RecordsSaved)
			s.Equal(int64(101), entry.LastRecordID)
			s.Equal(domain.StatusOK, entry.Status)
			return nil
		},
	)
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, event domain.ExportEvent) error {
			s.Equal(domain.EventPageSynced, event.Type)
			s.Equal(1, event.RecordsSaved)
			return nil
		},
	)

	s.staging.EXPECT().List(ctx, "2025-12").Return(rows, nil)
	s.reports.EXPECT().Create(ctx, "ticket-export-2025-12.csv", gomock.Any()).
		Return("https://storage.googleapis.com/reports/ticket-export-2025-12.csv", nil)
	s.reports.EXPECT().Share(ctx, "ticket-export-2025-12.csv", "ops@example.com").Return(nil)
	s.notifier.EXPECT().SendReport(ctx, []string{"ops@example.com"}, "2025-12",
		"https://storage.googleapis.com/reports/ticket-export-2025-12.csv").Return(nil)

	s.checkpoints.EXPECT().Clear(ctx, "2025-12").Return(nil)
	s.audit.EXPECT().Append(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, entry domain.AuditEntry) error {
			s.Equal(domain.StatusComplete, entry.Status)
			s.Equal(1, entry.RecordsSaved)
			return nil
		},
	)
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, event domain.ExportEvent) error {
			s.Equal(domain.EventExportCompleted, event.Type)
			s.NotEmpty(event.ReportURL)
			return nil
		},
	)

	stats, err := s.service.Export(ctx, "2025-12")

	s.NoError(err)
	s.Equal(1, stats.Pages)
	s.Equal(2, stats.Fetched)
	s.Equal(1, stats.Saved)
	s.Equal(1, stats.Skipped)
	s.True(stats.Completed)
	s.Equal("https://storage.googleapis.com/reports/ticket-export-2025-12.csv", stats.ReportURL)
}

func (s *ExportServiceTestSuite) TestExport_InvalidMonth() {
	stats, err := s.service.Export(context.Background(), "2025-13")

	s.Error(err)
	s.ErrorIs(err, domain.ErrInvalidMonth)
	s.Nil(stats)
}

func (s *ExportServiceTestSuite) TestExport_AdmitsLastSecondOfWindow() {
	ctx := context.Background()

	ticket := domain.Ticket{
		ID:        201,
		CreatedAt: s.windowEnd.Add(-1 * time.Second),
		Subject:   "just in time",
	}
	rows := []domain.TicketRow{{TicketID: 201, CreatedAt: ticket.CreatedAt}}

	s.expectTx(ctx, 1)

	s.checkpoints.EXPECT().Get(ctx, "2025-12").Return(&domain.Checkpoint{
		WindowID: "2025-12",
		Cursor:   s.windowStart.Unix(),
	}, nil)

	s.source.EXPECT().FetchPage(ctx, s.windowStart.Unix()).Return(&domain.Page{
		Tickets:     []domain.Ticket{ticket},
		EndCursor:   ticket.CreatedAt.Unix(),
		EndOfStream: false,
	}, nil)
	s.enricher.EXPECT().EnrichPage(ctx, []domain.Ticket{ticket}).Return(rows, nil)

	s.staging.EXPECT().Append(ctx, "2025-12", rows).Return(1, nil)
	s.checkpoints.EXPECT().Set(ctx, "2025-12", ticket.CreatedAt.Unix()).Return(nil)
	s.audit.EXPECT().Append(ctx, gomock.Any()).Return(nil)
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	// Page budget exhausted before the window drains; no finalization.
	stats, err := s.service.Export(ctx, "2025-12")

	s.NoError(err)
	s.Equal(1, stats.Saved)
	s.Equal(0, stats.Skipped)
	s.False(stats.Completed)
}

func (s *ExportServiceTestSuite) TestExport_ZeroAdmitPageStillAdvancesCheckpoint() {
	ctx := context.Background()

	// A record from before the window start arrives on the feed page; it is
	// filtered out, yet the checkpoint has to advance past it.
	stale := domain.Ticket{ID: 50, CreatedAt: s.windowStart.Add(-time.Hour)}
	nextCursor := s.windowStart.Add(30 * time.Minute).Unix()

	s.expectTx(ctx, 1)

	s.checkpoints.EXPECT().Get(ctx, "2025-12").Return(&domain.Checkpoint{
		WindowID: "2025-12",
		Cursor:   s.windowStart.Unix(),
	}, nil)

	s.source.EXPECT().FetchPage(ctx, s.windowStart.Unix()).Return(&domain.Page{
		Tickets:   []domain.Ticket{stale},
		EndCursor: nextCursor,
	}, nil)
	s.enricher.EXPECT().EnrichPage(ctx, []domain.Ticket{}).Return([]domain.TicketRow{}, nil)

	s.staging.EXPECT().Append(ctx, "2025-12", []domain.TicketRow{}).Return(0, nil)
	s.checkpoints.EXPECT().Set(ctx, "2025-12", nextCursor).Return(nil)
	s.audit.EXPECT().Append(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, entry domain.AuditEntry) error {
			s.Equal(domain.StatusOK, entry.Status)
			s.Equal(0, entry.RecordsSaved)
			s.Equal(int64(0), entry.LastRecordID)
			return nil
		},
	)
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	stats, err := s.service.Export(ctx, "2025-12")

	s.NoError(err)
	s.Equal(1, stats.Fetched)
	s.Equal(1, stats.Skipped)
	s.Equal(0, stats.Saved)
	s.False(stats.Completed)
}

func (s *ExportServiceTestSuite) TestExport_CursorNeverMovesBackwards() {
	ctx := context.Background()
	cursor := s.windowStart.Add(2 * time.Hour).Unix()

	s.expectTx(ctx, 1)

	s.checkpoints.EXPECT().Get(ctx, "2025-12").Return(&domain.Checkpoint{
		WindowID: "2025-12",
		Cursor:   cursor,
	}, nil)

	// Upstream misbehaves and reports an end cursor behind the checkpoint.
	s.source.EXPECT().FetchPage(ctx, cursor).Return(&domain.Page{
		EndCursor: cursor - 600,
	}, nil)
	s.enricher.EXPECT().EnrichPage(ctx, []domain.Ticket{}).Return([]domain.TicketRow{}, nil)

	s.staging.EXPECT().Append(ctx, "2025-12", []domain.TicketRow{}).Return(0, nil)
	s.checkpoints.EXPECT().Set(ctx, "2025-12", cursor).Return(nil)
	s.audit.EXPECT().Append(ctx, gomock.Any()).Return(nil)
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	stats, err := s.service.Export(ctx, "2025-12")

	s.NoError(err)
	s.False(stats.Completed)
}

func (s *ExportServiceTestSuite) TestExport_DegradedRowsInAuditStatus() {
	ctx := context.Background()

	tickets := []domain.Ticket{
		{ID: 301, CreatedAt: s.windowStart.Add(time.Minute)},
		{ID: 302, CreatedAt: s.windowStart.Add(2 * time.Minute)},
	}
	rows := []domain.TicketRow{
		{TicketID: 301, RequesterEmail: "N/A", Degraded: true},
		{TicketID: 302, RequesterEmail: "bob@example.com"},
	}

	s.expectTx(ctx, 1)

	s.checkpoints.EXPECT().Get(ctx, "2025-12").Return(&domain.Checkpoint{
		WindowID: "2025-12",
		Cursor:   s.windowStart.Unix(),
	}, nil)

	s.source.EXPECT().FetchPage(ctx, s.windowStart.Unix()).Return(&domain.Page{
		Tickets:   tickets,
		EndCursor: tickets[1].CreatedAt.Unix(),
	}, nil)
	s.enricher.EXPECT().EnrichPage(ctx, tickets).Return(rows, nil)

	s.staging.EXPECT().Append(ctx, "2025-12", rows).Return(2, nil)
	s.checkpoints.EXPECT().Set(ctx, "2025-12", tickets[1].CreatedAt.Unix()).Return(nil)
	s.audit.EXPECT().Append(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, entry domain.AuditEntry) error {
			s.Equal("OK (degraded: 301)", entry.Status)
			s.Equal(int64(302), entry.LastRecordID)
			return nil
		},
	)
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	stats, err := s.service.Export(ctx, "2025-12")

	s.NoError(err)
	s.Equal(1, stats.Degraded)
	s.Equal(2, stats.Saved)
}

func (s *ExportServiceTestSuite) TestExport_SeedErrorRecordsFailure() {
	ctx := context.Background()

	s.checkpoints.EXPECT().Get(ctx, "2025-12").Return(nil, errors.New("connection refused"))

	s.audit.EXPECT().Append(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, entry domain.AuditEntry) error {
			s.True(strings.HasPrefix(entry.Status, "ERROR: "))
			s.Equal(s.windowStart.Unix(), entry.Cursor)
			return nil
		},
	)

	stats, err := s.service.Export(ctx, "2025-12")

	s.Error(err)
	s.Contains(err.Error(), "read checkpoint")
	s.False(stats.Completed)
}

func (s *ExportServiceTestSuite) TestExport_FetchErrorRecordsFailure() {
	ctx := context.Background()

	s.checkpoints.EXPECT().Get(ctx, "2025-12").Return(&domain.Checkpoint{
		WindowID: "2025-12",
		Cursor:   s.windowStart.Unix(),
	}, nil)

	s.source.EXPECT().FetchPage(ctx, s.windowStart.Unix()).Return(nil, errors.New("upstream status 503"))

	s.audit.EXPECT().Append(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, entry domain.AuditEntry) error {
			s.True(strings.HasPrefix(entry.Status, "ERROR: "))
			s.Equal(s.windowStart.Unix(), entry.Cursor)
			return nil
		},
	)

	stats, err := s.service.Export(ctx, "2025-12")

	s.Error(err)
	s.Contains(err.Error(), "fetch page")
	s.False(stats.Completed)
}

func (s *ExportServiceTestSuite) TestExport_PersistErrorKeepsCursor() {
	ctx := context.Background()

	ticket := domain.Ticket{ID: 401, CreatedAt: s.windowStart.Add(time.Minute)}
	rows := []domain.TicketRow{{TicketID: 401}}

	s.checkpoints.EXPECT().Get(ctx, "2025-12").Return(&domain.Checkpoint{
		WindowID: "2025-12",
		Cursor:   s.windowStart.Unix(),
	}, nil)

	s.source.EXPECT().FetchPage(ctx, s.windowStart.Unix()).Return(&domain.Page{
		Tickets:   []domain.Ticket{ticket},
		EndCursor: ticket.CreatedAt.Unix(),
	}, nil)
	s.enricher.EXPECT().EnrichPage(ctx, []domain.Ticket{ticket}).Return(rows, nil)

	// The whole transaction rolls back; neither rows nor the checkpoint land.
	s.txManager.EXPECT().WithTransaction(ctx, gomock.Any()).Return(errors.New("connection reset"))

	s.audit.EXPECT().Append(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, entry domain.AuditEntry) error {
			s.True(strings.HasPrefix(entry.Status, "ERROR: "))
			return nil
		},
	)

	stats, err := s.service.Export(ctx, "2025-12")

	s.Error(err)
	s.Equal(0, stats.Saved)
	s.False(stats.Completed)
}

func (s *ExportServiceTestSuite) TestExport_CheckpointPastEndSkipsToFinalize() {
	ctx := context.Background()

	rows := []domain.TicketRow{{TicketID: 101, CreatedAt: s.windowStart.Add(5 * time.Second)}}

	s.expectTx(ctx, 1)

	// Re-invocation after a finalization failure: the window is drained, so no
	// page is fetched and the run goes straight to finalization.
	s.checkpoints.EXPECT().Get(ctx, "2025-12").Return(&domain.Checkpoint{
		WindowID: "2025-12",
		Cursor:   s.windowEnd.Unix(),
	}, nil)

	s.staging.EXPECT().List(ctx, "2025-12").Return(rows, nil)
	s.reports.EXPECT().Create(ctx, "ticket-export-2025-12.csv", gomock.Any()).
		Return("https://storage.googleapis.com/reports/ticket-export-2025-12.csv", nil)
	s.reports.EXPECT().Share(ctx, "ticket-export-2025-12.csv", "ops@example.com").Return(nil)
	s.notifier.EXPECT().SendReport(ctx, []string{"ops@example.com"}, "2025-12", gomock.Any()).Return(nil)

	s.staging.EXPECT().Reset(ctx, "2025-12").Return(nil)
	s.checkpoints.EXPECT().Clear(ctx, "2025-12").Return(nil)
	s.audit.EXPECT().Append(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, entry domain.AuditEntry) error {
			s.Equal(domain.StatusComplete, entry.Status)
			return nil
		},
	)
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	stats, err := s.service.Export(ctx, "2025-12")

	s.NoError(err)
	s.Equal(0, stats.Pages)
	s.True(stats.Completed)
}

func (s *ExportServiceTestSuite) TestExport_ShareFailureKeepsCheckpoint() {
	ctx := context.Background()

	s.checkpoints.EXPECT().Get(ctx, "2025-12").Return(&domain.Checkpoint{
		WindowID: "2025-12",
		Cursor:   s.windowEnd.Unix(),
	}, nil)

	s.staging.EXPECT().List(ctx, "2025-12").Return([]domain.TicketRow{}, nil)
	s.reports.EXPECT().Create(ctx, "ticket-export-2025-12.csv", gomock.Any()).
		Return("https://storage.googleapis.com/reports/ticket-export-2025-12.csv", nil)
	s.reports.EXPECT().Share(ctx, "ticket-export-2025-12.csv", "ops@example.com").
		Return(errors.New("permission denied"))

	// No Clear, no teardown transaction: the checkpoint survives so the next
	// invocation retries finalization.
	s.audit.EXPECT().Append(ctx, gomock.Any()).Return(nil)

	stats, err := s.service.Export(ctx, "2025-12")

	s.Error(err)
	var finErr *domain.FinalizationError
	s.ErrorAs(err, &finErr)
	s.Equal("share artifact", finErr.Step)
	s.False(stats.Completed)
}

func (s *ExportServiceTestSuite) TestExport_TeardownFailureKeepsCheckpoint() {
	ctx := context.Background()

	s.checkpoints.EXPECT().Get(ctx, "2025-12").Return(&domain.Checkpoint{
		WindowID: "2025-12",
		Cursor:   s.windowEnd.Unix(),
	}, nil)

	s.staging.EXPECT().List(ctx, "2025-12").Return([]domain.TicketRow{}, nil)
	s.reports.EXPECT().Create(ctx, "ticket-export-2025-12.csv", gomock.Any()).
		Return("https://storage.googleapis.com/reports/ticket-export-2025-12.csv", nil)
	s.reports.EXPECT().Share(ctx, "ticket-export-2025-12.csv", "ops@example.com").Return(nil)
	s.notifier.EXPECT().SendReport(ctx, []string{"ops@example.com"}, "2025-12", gomock.Any()).Return(nil)

	s.txManager.EXPECT().WithTransaction(ctx, gomock.Any()).Return(errors.New("deadlock detected"))

	s.audit.EXPECT().Append(ctx, gomock.Any()).Return(nil)

	stats, err := s.service.Export(ctx, "2025-12")

	s.Error(err)
	var finErr *domain.FinalizationError
	s.ErrorAs(err, &finErr)
	s.Equal("clear export state", finErr.Step)
	s.False(stats.Completed)
}

func (s *ExportServiceTestSuite) TestExport_NoRecipientsSkipsNotification() {
	ctx := context.Background()

	service := NewExportService(
		s.source,
		s.enricher,
		s.checkpoints,
		s.staging,
		s.audit,
		s.txManager,
		s.publisher,
		s.reports,
		s.notifier,
		nil,
		s.logger,
		s.cfg,
	)

	s.expectTx(ctx, 1)

	s.checkpoints.EXPECT().Get(ctx, "2025-12").Return(&domain.Checkpoint{
		WindowID: "2025-12",
		Cursor:   s.windowEnd.Unix(),
	}, nil)

	s.staging.EXPECT().List(ctx, "2025-12").Return([]domain.TicketRow{}, nil)
	s.reports.EXPECT().Create(ctx, "ticket-export-2025-12.csv", gomock.Any()).
		Return("https://storage.googleapis.com/reports/ticket-export-2025-12.csv", nil)

	s.staging.EXPECT().Reset(ctx, "2025-12").Return(nil)
	s.checkpoints.EXPECT().Clear(ctx, "2025-12").Return(nil)
	s.audit.EXPECT().Append(ctx, gomock.Any()).Return(nil)
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	stats, err := service.Export(ctx, "2025-12")

	s.NoError(err)
	s.True(stats.Completed)
}

func (s *ExportServiceTestSuite) TestExport_PublishFailureIgnored() {
	ctx := context.Background()

	stale := domain.Ticket{ID: 60, CreatedAt: s.windowStart.Add(-time.Hour)}

	s.expectTx(ctx, 1)

	s.checkpoints.EXPECT().Get(ctx, "2025-12").Return(&domain.Checkpoint{
		WindowID: "2025-12",
		Cursor:   s.windowStart.Unix(),
	}, nil)

	s.source.EXPECT().FetchPage(ctx, s.windowStart.Unix()).Return(&domain.Page{
		Tickets:   []domain.Ticket{stale},
		EndCursor: s.windowStart.Add(time.Hour).Unix(),
	}, nil)
	s.enricher.EXPECT().EnrichPage(ctx, []domain.Ticket{}).Return([]domain.TicketRow{}, nil)

	s.staging.EXPECT().Append(ctx, "2025-12", []domain.TicketRow{}).Return(0, nil)
	s.checkpoints.EXPECT().Set(ctx, "2025-12", s.windowStart.Add(time.Hour).Unix()).Return(nil)
	s.audit.EXPECT().Append(ctx, gomock.Any()).Return(nil)

	s.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(errors.New("broker unavailable"))

	stats, err := s.service.Export(ctx, "2025-12")

	s.NoError(err)
	s.False(stats.Completed)
}

func (s *ExportServiceTestSuite) TestExport_MultiplePagesInOnePass() {
	ctx := context.Background()

	service := NewExportService(
		s.source,
		s.enricher,
		s.checkpoints,
		s.staging,
		s.audit,
		s.txManager,
		s.publisher,
		s.reports,
		s.notifier,
		nil,
		s.logger,
		config.ExportConfig{Interval: 5 * time.Minute, MaxPagesPerRun: 5},
	)

	first := domain.Ticket{ID: 501, CreatedAt: s.windowStart.Add(time.Minute)}
	second := domain.Ticket{ID: 502, CreatedAt: s.windowStart.Add(time.Hour)}
	firstRows := []domain.TicketRow{{TicketID: 501, CreatedAt: first.CreatedAt}}
	secondRows := []domain.TicketRow{{TicketID: 502, CreatedAt: second.CreatedAt}}
	midCursor := first.CreatedAt.Unix()

	// seed, two page commits, teardown
	s.expectTx(ctx, 4)

	s.checkpoints.EXPECT().Get(ctx, "2025-12").Return(nil, nil)
	s.staging.EXPECT().Reset(ctx, "2025-12").Return(nil).Times(2)
	s.audit.EXPECT().Reset(ctx, "2025-12").Return(nil)
	s.checkpoints.EXPECT().Set(ctx, "2025-12", s.windowStart.Unix()).Return(nil)

	s.source.EXPECT().FetchPage(ctx, s.windowStart.Unix()).Return(&domain.Page{
		Tickets:   []domain.Ticket{first},
		EndCursor: midCursor,
	}, nil)
	s.enricher.EXPECT().EnrichPage(ctx, []domain.Ticket{first}).Return(firstRows, nil)
	s.staging.EXPECT().Append(ctx, "2025-12", firstRows).Return(1, nil)
	s.checkpoints.EXPECT().Set(ctx, "2025-12", midCursor).Return(nil)

	s.source.EXPECT().FetchPage(ctx, midCursor).Return(&domain.Page{
		Tickets:     []domain.Ticket{second},
		EndCursor:   second.CreatedAt.Unix(),
		EndOfStream: true,
	}, nil)
	s.enricher.EXPECT().EnrichPage(ctx, []domain.Ticket{second}).Return(secondRows, nil)
	s.staging.EXPECT().Append(ctx, "2025-12", secondRows).Return(1, nil)
	s.checkpoints.EXPECT().Set(ctx, "2025-12", second.CreatedAt.Unix()).Return(nil)

	s.audit.EXPECT().Append(ctx, gomock.Any()).Return(nil).Times(3)
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil).Times(3)

	s.staging.EXPECT().List(ctx, "2025-12").Return(append(firstRows, secondRows...), nil)
	s.reports.EXPECT().Create(ctx, "ticket-export-2025-12.csv", gomock.Any()).
		Return("https://storage.googleapis.com/reports/ticket-export-2025-12.csv", nil)
	s.checkpoints.EXPECT().Clear(ctx, "2025-12").Return(nil)

	stats, err := service.Export(ctx, "2025-12")

	s.NoError(err)
	s.Equal(2, stats.Pages)
	s.Equal(2, stats.Saved)
	s.True(stats.Completed)
}
