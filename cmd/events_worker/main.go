package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/nordveldt/userbase/config"
	"github.com/nordveldt/userbase/internal/events"
	"github.com/nordveldt/userbase/pkg/helpers"
	"github.com/nordveldt/userbase/pkg/mailer"
	mailtpl "github.com/nordveldt/userbase/pkg/mailer/templates"
)

// Consumes role change events from the events queue and writes each one to
// the audit log. With OPS_NOTIFY_EMAIL set it also fans the event out as an
// email job for the ops inbox.
func main() {
	cfg := config.Load()
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEventsQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}

	logger := helpers.Component(helpers.NewLogger(cfg.AppName, cfg.Env), "events_worker")

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(16, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	if _, err := ch.QueueDeclare(cfg.RabbitMQEventsQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitMQEventsQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	// Optional fan-out to the ops inbox via the email queue.
	var emailPub *helpers.RabbitPublisher
	if cfg.OpsNotifyEmail != "" {
		emailPub, err = helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Warn("email queue unavailable, ops notifications disabled")
		} else {
			defer emailPub.Close()
		}
	}

	ctx := context.Background()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for msg := range msgs {
			var ev events.UserEvent
			if err := json.Unmarshal(msg.Body, &ev); err != nil {
				logger.WithError(err).Warn("bad message")
				_ = msg.Nack(false, false)
				continue
			}

			logger.WithFields(logrus.Fields{
				"event":    ev.Name,
				"event_id": ev.ID,
				"user_id":  ev.User.ID,
				"realname": ev.User.Realname,
				"role":     ev.User.Role,
			}).Info("role change event")

			if emailPub != nil {
				if err := forwardToOps(ctx, emailPub, cfg.OpsNotifyEmail, ev); err != nil {
					logger.WithError(err).WithField("event_id", ev.ID).Warn("ops notification failed")
				}
			}
			_ = msg.Ack(false)
		}
		close(done)
	}()

	logger.WithField("queue", cfg.RabbitMQEventsQueue).Info("events worker listening")
	<-stop
	logger.Info("shutting down...")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

func forwardToOps(ctx context.Context, pub *helpers.RabbitPublisher, to string, ev events.UserEvent) error {
	job := mailer.EmailJob{
		To:       to,
		Template: mailtpl.AdminRoleChange,
		Data: mailtpl.ToMap(mailtpl.EmailData{
			Name:           ev.User.Realname,
			Email:          ev.User.Email,
			RecipientEmail: to,
			Event:          eventLabel(ev.Name),
			Role:           ev.User.Role,
			UserID:         ev.User.ID,
		}),
	}
	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return pub.PublishJSON(c, job)
}

// eventLabel turns "user.created" into "Created" for the email subject.
func eventLabel(name string) string {
	_, after, found := strings.Cut(name, ".")
	if !found || after == "" {
		return name
	}
	return strings.ToUpper(after[:1]) + after[1:]
}
