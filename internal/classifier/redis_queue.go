package classifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisQueueClient speaks the capability's deployed job contract: jobs are
// pushed onto a Redis list consumed by the capability's workers, and each
// job's status document is written back under a result key.
type RedisQueueClient struct {
	client *redis.Client
}

// NewRedisQueueClient builds the client.
func NewRedisQueueClient(client *redis.Client) *RedisQueueClient {
	return &RedisQueueClient{client: client}
}

type queuedJob struct {
	JobID string `json:"job_id"`
	SubmitRequest
}

func jobsKey(queue string) string {
	return "triage:jobs:" + queue
}

func statusKey(queue string, handle JobHandle) string {
	return fmt.Sprintf("triage:status:%s:%s", queue, handle)
}

// Submit enqueues a job and returns its handle.
func (c *RedisQueueClient) Submit(ctx context.Context, queue string, req SubmitRequest) (JobHandle, error) {
	handle := JobHandle(uuid.NewString())
	payload, err := json.Marshal(queuedJob{JobID: string(handle), SubmitRequest: req})
	if err != nil {
		return "", fmt.Errorf("encode job: %w", err)
	}
	if err := c.client.LPush(ctx, jobsKey(queue), payload).Err(); err != nil {
		return "", fmt.Errorf("enqueue job: %w", err)
	}
	return handle, nil
}

// PollStatus reads the job's status document. A missing document means the
// capability has not picked the job up yet, which reads as pending.
func (c *RedisQueueClient) PollStatus(ctx context.Context, queue string, handle JobHandle) (*Status, error) {
	raw, err := c.client.Get(ctx, statusKey(queue, handle)).Bytes()
	if err == redis.Nil {
		return &Status{State: JobStatePending}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("poll job status: %w", err)
	}

	var status Status
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("decode job status: %w", err)
	}
	if status.State == "" {
		status.State = JobStatePending
	}
	return &status, nil
}
