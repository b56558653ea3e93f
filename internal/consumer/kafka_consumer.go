package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"memorial-service/internal/producer"
	"memorial-service/internal/sender"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type EmailSender interface {
	SendEmail(n sender.Email) error
}

type KafkaEmailConsumer struct {
	reader      *kafka.Reader
	emailSender EmailSender
	log         *zap.Logger
}

func NewKafkaEmailConsumer(brokers []string, groupID, topic string, emailSender EmailSender, log *zap.Logger) *KafkaEmailConsumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		Topic:             topic,
		MinBytes:          10e3,
		MaxBytes:          10e6,
		CommitInterval:    time.Second,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	})
	return &KafkaEmailConsumer{reader: r, emailSender: emailSender, log: log}
}

func (c *KafkaEmailConsumer) Run(ctx context.Context) error {
	c.log.Info("kafka consumer started")
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			c.log.Error("read message", zap.Error(err))
			continue
		}
		c.handle(m)
	}
}

// handle обрабатывает одно сообщение; битые сообщения пропускаются, чтобы не блокировать партицию.
func (c *KafkaEmailConsumer) handle(m kafka.Message) bool {
	var em producer.EmailMessage
	if err := json.Unmarshal(m.Value, &em); err != nil {
		c.log.Error("unmarshal email message", zap.ByteString("value", m.Value), zap.Error(err))
		return false
	}
	if em.To == "" || em.Template == "" {
		c.log.Warn("invalid email message", zap.String("key", string(m.Key)), zap.String("template", em.Template))
		return false
	}
	if err := c.emailSender.SendEmail(sender.Email{To: em.To, Subject: em.Subject, Template: em.Template, Data: em.Data}); err != nil {
		c.log.Error("send email failed", zap.String("to", em.To), zap.String("template", em.Template), zap.Error(err))
		return false
	}
	c.log.Info("email sent", zap.String("to", em.To), zap.String("template", em.Template))
	return true
}

func (c *KafkaEmailConsumer) Close() error { return c.reader.Close() }
