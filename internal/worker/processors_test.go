package worker

import (
	"context"
	"testing"
	"time"

	"workqueue-lambdas/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessorsAcceptValidPayloads(t *testing.T) {
	tests := []struct {
		workType    domain.WorkType
		payload     domain.Payload
		measurement string
	}{
		{domain.WorkTypeDataProcessing, domain.Payload{"userId": 123.0, "action": "update_profile"}, "user_activity"},
		{domain.WorkTypeEmailNotification, domain.Payload{"email": "user@example.com", "template": "welcome"}, "email_notifications"},
		{domain.WorkTypeDataCleanup, domain.Payload{"table": "old_logs", "days": 30.0}, "data_cleanup"},
		{domain.WorkTypeReportGeneration, domain.Payload{"reportType": "monthly", "userId": 456.0}, "report_generation"},
		{domain.WorkTypeBackupTask, domain.Payload{"database": "main", "retention": 7.0}, "database_backup"},
	}

	procs := instantSimulator().Processors()
	for _, tt := range tests {
		t.Run(string(tt.workType), func(t *testing.T) {
			sink := &recordingSink{}
			item := &domain.WorkItem{ID: 1, Type: tt.workType, Payload: tt.payload}

			result, err := procs[tt.workType].Process(context.Background(), item, sink)
			require.NoError(t, err)
			assert.NotEmpty(t, result)
			assert.Len(t, sink.byMeasurement(tt.measurement), 1)
		})
	}
}

func TestProcessorsRejectMissingFields(t *testing.T) {
	tests := []struct {
		workType domain.WorkType
		payload  domain.Payload
	}{
		{domain.WorkTypeDataProcessing, domain.Payload{"userId": 123.0}},
		{domain.WorkTypeDataProcessing, domain.Payload{"action": "update_profile"}},
		{domain.WorkTypeEmailNotification, domain.Payload{"email": "user@example.com"}},
		{domain.WorkTypeDataCleanup, domain.Payload{"days": 30.0}},
		{domain.WorkTypeReportGeneration, domain.Payload{"reportType": "monthly"}},
		{domain.WorkTypeReportGeneration, domain.Payload{"reportType": "monthly", "userId": "not-a-number"}},
		{domain.WorkTypeBackupTask, nil},
	}

	procs := instantSimulator().Processors()
	for _, tt := range tests {
		sink := &recordingSink{}
		item := &domain.WorkItem{ID: 9, Type: tt.workType, Payload: tt.payload}

		_, err := procs[tt.workType].Process(context.Background(), item, sink)
		assert.ErrorIs(t, err, domain.ErrInvalidPayload, "%s %v", tt.workType, tt.payload)
		assert.Empty(t, sink.points)
	}
}

func TestProcessorsAcceptZeroValues(t *testing.T) {
	tests := []struct {
		workType    domain.WorkType
		payload     domain.Payload
		measurement string
		field       string
	}{
		{domain.WorkTypeDataProcessing, domain.Payload{"action": "update_profile", "userId": 0.0}, "user_activity", "user_id"},
		{domain.WorkTypeDataCleanup, domain.Payload{"table": "old_logs", "days": 0.0}, "data_cleanup", "retention_days"},
		{domain.WorkTypeReportGeneration, domain.Payload{"reportType": "daily", "userId": 0.0}, "report_generation", "user_id"},
		{domain.WorkTypeBackupTask, domain.Payload{"database": "main", "retention": 0.0}, "database_backup", "retention_days"},
	}

	procs := instantSimulator().Processors()
	for _, tt := range tests {
		t.Run(string(tt.workType), func(t *testing.T) {
			sink := &recordingSink{}
			item := &domain.WorkItem{ID: 2, Type: tt.workType, Payload: tt.payload}

			_, err := procs[tt.workType].Process(context.Background(), item, sink)
			require.NoError(t, err)
			points := sink.byMeasurement(tt.measurement)
			require.Len(t, points, 1)
			assert.Equal(t, 0, points[0].Fields[tt.field])
		})
	}
}

func TestProcessorsRejectNumericStrings(t *testing.T) {
	tests := []struct {
		workType domain.WorkType
		payload  domain.Payload
	}{
		{domain.WorkTypeDataCleanup, domain.Payload{"table": "old_logs", "days": "30"}},
		{domain.WorkTypeBackupTask, domain.Payload{"database": "main", "retention": "7"}},
		{domain.WorkTypeEmailNotification, domain.Payload{"email": 42.0, "template": "welcome"}},
	}

	procs := instantSimulator().Processors()
	for _, tt := range tests {
		item := &domain.WorkItem{ID: 3, Type: tt.workType, Payload: tt.payload}

		_, err := procs[tt.workType].Process(context.Background(), item, &recordingSink{})
		assert.ErrorIs(t, err, domain.ErrInvalidPayload, "payload %v", tt.payload)
	}
}

func TestSimulatedSizesStayInRange(t *testing.T) {
	for _, draw := range []func(int) int{
		func(int) int { return 0 },
		func(n int) int { return n - 1 },
	} {
		procs := NewSimulator(discardLogger(), WithDelayScale(0), WithIntN(draw)).Processors()
		ctx := context.Background()

		res, err := procs[domain.WorkTypeDataCleanup].Process(ctx,
			&domain.WorkItem{Type: domain.WorkTypeDataCleanup, Payload: domain.Payload{"table": "old_logs", "days": 30}}, domain.NopSink{})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res["records_deleted"], 0)
		assert.LessOrEqual(t, res["records_deleted"], 99)

		res, err = procs[domain.WorkTypeReportGeneration].Process(ctx,
			&domain.WorkItem{Type: domain.WorkTypeReportGeneration, Payload: domain.Payload{"reportType": "monthly", "userId": 1}}, domain.NopSink{})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res["report_size_kb"], 100)
		assert.LessOrEqual(t, res["report_size_kb"], 1099)

		res, err = procs[domain.WorkTypeBackupTask].Process(ctx,
			&domain.WorkItem{Type: domain.WorkTypeBackupTask, Payload: domain.Payload{"database": "main", "retention": 7}}, domain.NopSink{})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res["backup_size_mb"], 1000)
		assert.LessOrEqual(t, res["backup_size_mb"], 10999)
	}
}

func TestCleanupOfUnmanagedTableIsNoop(t *testing.T) {
	sink := &recordingSink{}
	procs := instantSimulator().Processors()

	res, err := procs[domain.WorkTypeDataCleanup].Process(context.Background(),
		&domain.WorkItem{Type: domain.WorkTypeDataCleanup, Payload: domain.Payload{"table": "sessions", "days": 1}}, sink)
	require.NoError(t, err)
	assert.Equal(t, 0, res["records_deleted"])
	assert.Empty(t, sink.points)
}

func TestProcessorHonoursCancellation(t *testing.T) {
	procs := NewSimulator(discardLogger(), WithDelayScale(100)).Processors()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := procs[domain.WorkTypeBackupTask].Process(ctx,
		&domain.WorkItem{Type: domain.WorkTypeBackupTask, Payload: domain.Payload{"database": "main", "retention": 7}}, domain.NopSink{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
