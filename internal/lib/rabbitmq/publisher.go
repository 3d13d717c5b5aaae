package rabbitmq

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

// JobPublisher публикует задания синхронизации в очередь воркера.
// Сообщения персистентные: задание переживает перезапуск брокера.
type JobPublisher struct {
	ch *amqp.Channel
}

func NewJobPublisher(ch *amqp.Channel) *JobPublisher {
	return &JobPublisher{ch: ch}
}

func (p *JobPublisher) PublishJob(job any) error {
	const op = "rabbitmq.PublishJob"

	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = p.ch.Publish(
		SyncExchange,
		SyncJobsRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
