//go:build integration

package kafka_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"nftmarket/internal/platform/config"
	"nftmarket/internal/platform/kafka"
	"nftmarket/pkg/platform/outbox"
	"nftmarket/pkg/testutil/containers"
)

type ProducerSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
}

func TestProducerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ProducerSuite))
}

func (s *ProducerSuite) SetupSuite() {
	s.redpanda = containers.GetManager().GetRedpanda(s.T())
}

func (s *ProducerSuite) TestPublishedRecordsCarryKeyAndHeaders() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	topic := "marketplace-events-" + uuid.NewString()
	producer, err := kafka.NewProducer(config.Kafka{
		Brokers:  s.redpanda.Brokers,
		Topic:    topic,
		ClientID: "nftmarket-test",
	}, nil)
	s.Require().NoError(err)
	defer producer.Close()

	s.Require().NoError(producer.EnsureTopic(ctx, 1, 1))
	// A second call sees the existing topic and succeeds.
	s.Require().NoError(producer.EnsureTopic(ctx, 1, 1))

	entry, err := outbox.NewEntry("item", "0xpunks/7", "marketplace.item_bought", map[string]any{"price": 100}, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(producer.Publish(ctx, []outbox.Entry{entry}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	var record *kgo.Record
	for record == nil {
		fetches := consumer.PollFetches(ctx)
		s.Require().NoError(ctx.Err())
		fetches.EachRecord(func(r *kgo.Record) {
			if record == nil {
				record = r
			}
		})
	}

	s.Equal("0xpunks/7", string(record.Key))
	s.JSONEq(`{"price":100}`, string(record.Value))
	headers := map[string]string{}
	for _, h := range record.Headers {
		headers[h.Key] = string(h.Value)
	}
	s.Equal(entry.ID.String(), headers[kafka.HeaderEventID])
	s.Equal("marketplace.item_bought", headers[kafka.HeaderEventType])
}
