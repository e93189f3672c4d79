package dispatcher

import "workqueue-lambdas/internal/domain"

// DefaultBatch is the fixed set of work items enqueued on every cron tick.
func DefaultBatch() []domain.WorkItem {
	return []domain.WorkItem{
		{ID: 1, Type: domain.WorkTypeDataProcessing, Payload: domain.Payload{"userId": 123, "action": "update_profile"}},
		{ID: 2, Type: domain.WorkTypeEmailNotification, Payload: domain.Payload{"email": "user@example.com", "template": "welcome"}},
		{ID: 3, Type: domain.WorkTypeDataCleanup, Payload: domain.Payload{"table": "old_logs", "days": 30}},
		{ID: 4, Type: domain.WorkTypeReportGeneration, Payload: domain.Payload{"reportType": "monthly", "userId": 456}},
		{ID: 5, Type: domain.WorkTypeBackupTask, Payload: domain.Payload{"database": "main", "retention": 7}},
	}
}
