package export

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/airbusgeo/s2-exporter/interface/messaging"
	"github.com/jonboulle/clockwork"
)

// BackendQueue is the name of the backend of QueueSubmitter
const BackendQueue = "queue"

// QueueSubmitter publishes the jobs (as json) to a message queue consumed by export workers
type QueueSubmitter struct {
	Publisher messaging.Publisher
	Clock     clockwork.Clock
}

// Submit implements JobSubmitter
func (s *QueueSubmitter) Submit(ctx context.Context, job ExportJob) (JobHandle, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return JobHandle{}, fmt.Errorf("QueueSubmitter.Marshal: %w", err)
	}
	id, err := s.Publisher.Publish(ctx, data, map[string]string{
		"description": job.Description,
		"product":     job.Product,
		"scene_id":    job.SceneID,
	})
	if err != nil {
		return JobHandle{}, fmt.Errorf("QueueSubmitter.%w", err)
	}
	return JobHandle{ID: id, Backend: BackendQueue, SubmittedAt: now(s.Clock)}, nil
}
