package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const subjectPrefix = "shopfront.cart."

// Notice is the payload published on a cart subject. Topic repeats the
// session the subject was derived from.
type Notice struct {
	Origin string `json:"origin"`
	Topic  string `json:"topic"`
}

func Subject(topic string) string { return subjectPrefix + topic }

// Feed distributes cart change notices over NATS so that stores opened by
// different processes for the same session stay in step.
type Feed struct {
	conn *nats.Conn
	log  *zap.Logger
}

func NewFeed(conn *nats.Conn, logger *zap.Logger) (*Feed, error) {
	if conn == nil {
		return nil, fmt.Errorf("NATS connection cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{conn: conn, log: logger}, nil
}

func (f *Feed) Publish(_ context.Context, topic, origin string) error {
	data, err := EncodeNotice(topic, origin)
	if err != nil {
		return err
	}
	if err := f.conn.Publish(Subject(topic), data); err != nil {
		return fmt.Errorf("publish to NATS subject %s: %w", Subject(topic), err)
	}
	return nil
}

func (f *Feed) Subscribe(topic string, fn func(origin string)) (func(), error) {
	sub, err := f.conn.Subscribe(Subject(topic), func(m *nats.Msg) {
		n, err := DecodeNotice(m.Data)
		if err != nil {
			f.log.Warn("dropping malformed cart notice", zap.String("subject", m.Subject), zap.Error(err))
			return
		}
		if n.Topic != topic {
			f.log.Warn("dropping cart notice for another topic", zap.String("subject", m.Subject), zap.String("topic", n.Topic))
			return
		}
		fn(n.Origin)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to NATS subject %s: %w", Subject(topic), err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := sub.Unsubscribe(); err != nil {
				f.log.Debug("nats unsubscribe", zap.String("subject", sub.Subject), zap.Error(err))
			}
		})
	}, nil
}

func EncodeNotice(topic, origin string) ([]byte, error) {
	data, err := json.Marshal(Notice{Origin: origin, Topic: topic})
	if err != nil {
		return nil, fmt.Errorf("marshal cart notice: %w", err)
	}
	return data, nil
}

func DecodeNotice(data []byte) (Notice, error) {
	var n Notice
	if err := json.Unmarshal(data, &n); err != nil {
		return Notice{}, fmt.Errorf("unmarshal cart notice: %w", err)
	}
	if n.Origin == "" {
		return Notice{}, fmt.Errorf("cart notice without origin")
	}
	if n.Topic == "" {
		return Notice{}, fmt.Errorf("cart notice without topic")
	}
	return n, nil
}
