package cmd

type ConsumerConfig struct {
	StreamName  string   `json:"stream-name"`
	Name        string   `json:"name"`          // Durable/queue name
	AckWaitTime Duration `json:"ack-wait-time"` // How long after no response the worker considered dead
	Replicas    int      `json:"replicas,omitempty"`
}

// TasksSubject is where task messages for tool are published.
func (c *ConsumerConfig) TasksSubject(tool string) string {
	return c.StreamName + ".tasks." + tool
}

type ObjectStoreBucketConfig struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Replicas    int    `json:"replicas,omitempty"`
}

type KeyValueBucketConfig struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Replicas    int    `json:"replicas,omitempty"`
}
