package command

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"
)

// IdempotencyKeyMetadata travels with each command so a redelivered refund can be traced to its first attempt.
const IdempotencyKeyMetadata = "idempotency_key"

type idempotent interface {
	IdempotencyKey() string
}

var marshaler = cqrs.JSONMarshaler{
	GenerateName: cqrs.StructName,
}

// Topic keeps commands apart from event streams of the same name.
func Topic(commandName string) string {
	return "tours.commands." + commandName
}

func NewBus(publisher message.Publisher, logger watermill.LoggerAdapter) (*cqrs.CommandBus, error) {
	return cqrs.NewCommandBusWithConfig(publisher, cqrs.CommandBusConfig{
		GeneratePublishTopic: func(params cqrs.CommandBusGeneratePublishTopicParams) (string, error) {
			return Topic(params.CommandName), nil
		},
		OnSend: func(params cqrs.CommandBusOnSendParams) error {
			if cmd, ok := params.Command.(idempotent); ok {
				params.Message.Metadata.Set(IdempotencyKeyMetadata, cmd.IdempotencyKey())
			}
			return nil
		},
		Marshaler: marshaler,
		Logger:    logger,
	})
}

func NewProcessorConfig(logger watermill.LoggerAdapter, redisClient *redis.Client) cqrs.CommandProcessorConfig {
	return cqrs.CommandProcessorConfig{
		SubscriberConstructor: func(params cqrs.CommandProcessorSubscriberConstructorParams) (message.Subscriber, error) {
			return redisstream.NewSubscriber(redisstream.SubscriberConfig{
				Client:        redisClient,
				ConsumerGroup: "svc-tours.commands." + params.HandlerName,
			}, logger)
		},
		GenerateSubscribeTopic: func(params cqrs.CommandProcessorGenerateSubscribeTopicParams) (string, error) {
			return Topic(params.CommandName), nil
		},
		OnHandle: func(params cqrs.CommandProcessorOnHandleParams) error {
			logger.Debug("Handling command", watermill.LogFields{
				"command":         params.CommandName,
				"handler":         params.Handler.HandlerName(),
				"idempotency_key": params.Message.Metadata.Get(IdempotencyKeyMetadata),
			})
			return params.Handler.Handle(params.Message.Context(), params.Command)
		},
		Marshaler: marshaler,
		Logger:    logger,
	}
}
