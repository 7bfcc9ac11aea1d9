package kafka

import (
	"context"
	"time"

	"github.com/Shopify/sarama"
	"github.com/bytedance/sonic"

	"github.com/truongnh28/bookstore/repository"
)

type settledItem struct {
	BookID        uint   `json:"book_id"`
	Quantity      uint   `json:"quantity"`
	Price         int64  `json:"price"`
	DiscountPrice *int64 `json:"discount_price,omitempty"`
}

type settledEvent struct {
	TransactionID string        `json:"transaction_id"`
	UserID        uint          `json:"user_id"`
	TotalPrice    int64         `json:"total_price"`
	Items         []settledItem `json:"items"`
	SettledAt     time.Time     `json:"settled_at"`
}

// Producer emits settlement events for downstream consumers. Checkout
// treats publishing as best effort; a broker outage never fails a sale.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewProducer(brokers []string, topic string) (*Producer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &Producer{
		producer: producer,
		topic:    topic,
	}, nil
}

func (p *Producer) TransactionSettled(ctx context.Context, trx repository.Transaction) error {
	event := settledEvent{
		TransactionID: trx.ID,
		UserID:        trx.UserID,
		TotalPrice:    trx.TotalPrice,
		SettledAt:     trx.CreatedAt,
	}
	for _, item := range trx.Items {
		event.Items = append(event.Items, settledItem{
			BookID:        item.BookID,
			Quantity:      item.Quantity,
			Price:         item.Price,
			DiscountPrice: item.DiscountPrice,
		})
	}

	payload, err := sonic.Marshal(event)
	if err != nil {
		return err
	}
	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(trx.ID),
		Value: sarama.ByteEncoder(payload),
	})
	return err
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
