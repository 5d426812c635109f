package export

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/airbusgeo/s2-exporter/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	messages   [][]byte
	attributes []map[string]string
	err        error
}

func (p *fakePublisher) Publish(ctx context.Context, data []byte, attributes map[string]string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.messages = append(p.messages, data)
	p.attributes = append(p.attributes, attributes)
	return fmt.Sprintf("msg-%d", len(p.messages)), nil
}

func TestQueueSubmitter(t *testing.T) {
	masked, ndvi, full := testInputs(t)
	jobs, err := BuildJobs(masked, ndvi, full, common.BandsRGB(), common.Bands10(), "prefix", "folder")
	require.NoError(t, err)

	publisher := &fakePublisher{}
	results := SubmitAll(context.Background(), &QueueSubmitter{Publisher: publisher}, jobs)
	require.NoError(t, results.Err())
	require.Len(t, publisher.messages, 4)
	assert.Equal(t, "msg-4", results[3].Handle.ID)
	assert.Equal(t, BackendQueue, results[3].Handle.Backend)
	assert.Equal(t, ProductFull, publisher.attributes[3]["product"])

	var job ExportJob
	require.NoError(t, json.Unmarshal(publisher.messages[2], &job))
	assert.Equal(t, jobs[2].Description, job.Description)
	assert.Equal(t, jobs[2].Recipe, job.Recipe)

	publisher.err = fmt.Errorf("unavailable")
	results = SubmitAll(context.Background(), &QueueSubmitter{Publisher: publisher}, jobs)
	assert.Equal(t, 4, results.Failed())
}
