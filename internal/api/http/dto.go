package http

import "workqueue-lambdas/internal/domain"

// WorkItemRequest is the DTO for one work item of a manual dispatch.
type WorkItemRequest struct {
	ID      int            `json:"id" validate:"gte=0"`
	Type    string         `json:"type" validate:"required,worktype"`
	Payload map[string]any `json:"payload"`
}

// DispatchRequest is the body of POST /dispatch. An empty item list sends
// the default batch.
type DispatchRequest struct {
	Items []WorkItemRequest `json:"items" validate:"omitempty,max=100,dive"`
}

// ToDomainItems converts the request DTO to work items.
func (r *DispatchRequest) ToDomainItems() []domain.WorkItem {
	items := make([]domain.WorkItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, domain.WorkItem{
			ID:      it.ID,
			Type:    domain.WorkType(it.Type),
			Payload: domain.Payload(it.Payload),
		})
	}
	return items
}

// DispatchResponse is returned by POST /dispatch.
type DispatchResponse struct {
	MessagesSent []domain.DispatchRecord `json:"messagesSent"`
	Error        string                  `json:"error,omitempty"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	NodeID string `json:"nodeId"`
	Leader bool   `json:"leader"`
}
