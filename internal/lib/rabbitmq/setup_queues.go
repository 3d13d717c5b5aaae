package rabbitmq

// SyncExchange обменник заданий синхронизации.
const SyncExchange = "storesync"

// SyncJobsQueue очередь, из которой sync-worker забирает задания.
const SyncJobsQueue = "sync.jobs"

// SyncJobsRoutingKey ключ маршрутизации заданий синхронизации.
const SyncJobsRoutingKey = "jobs"

type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

func GetSyncQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: SyncJobsQueue, RoutingKey: SyncJobsRoutingKey},
	}
}
