package main

import (
	"context"
	"encoding/json"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/joho/godotenv"

	"github.com/matchapp/user-service/config"
	"github.com/matchapp/user-service/internal/application/events"
	"github.com/matchapp/user-service/internal/broker"
	"github.com/matchapp/user-service/internal/domain/entity"
	"github.com/matchapp/user-service/pkg/helpers"
	"github.com/matchapp/user-service/pkg/mailer"
)

// worker sends verification emails. It never touches the database: user state
// comes back over the request/reply bridge, and the "sent" fact goes out as a
// fire-and-forget message for the api process to persist.
type worker struct {
	rr     *broker.RequestReply
	conn   *broker.Conn
	mg     *mailer.Mailgun
	cfg    *config.Config
	logger *logrus.Logger
}

func (w *worker) handleVerificationEmail(ctx context.Context, _ string, body []byte) error {
	var req events.VerificationEmailRequest
	if err := json.Unmarshal(body, &req); err != nil {
		w.logger.WithError(err).Warn("bad verification email payload")
		return nil // malformed, do not requeue
	}

	// Re-read the aggregate so a redelivered message does not send twice.
	var reply events.GetUserReply
	if err := w.rr.Send(ctx, events.QueueGetUserByIdentifier, events.GetUserRequest{Identifier: req.UserID}, &reply); err != nil {
		return err
	}
	if !reply.Found || reply.User == nil {
		w.logger.WithField("user_id", req.UserID).Warn("user not found, dropping email request")
		return nil
	}
	if reply.User.Settings.IsVerificationEmailSent == entity.FlagYes {
		w.logger.WithField("user_id", req.UserID).Info("verification email already sent, skipping")
		return nil
	}

	email := mailer.VerificationEmail{
		To:        req.Email,
		FullName:  req.FullName,
		Token:     req.EmailVerificationToken,
		VerifyURL: w.cfg.VerifyEmailURL,
	}
	subject, text, html, err := email.Render()
	if err != nil {
		return err
	}

	if w.cfg.MailSendEnabled {
		sendCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if err := w.mg.Send(sendCtx, email.To, subject, text, html); err != nil {
			return err // requeue, mailgun may be transiently down
		}
	} else {
		w.logger.WithField("to", email.To).Info("mail sending disabled, marking as sent anyway")
	}

	if err := w.conn.Publish(ctx, events.QueueVerificationEmailSent, events.VerificationEmailSent{Identifier: req.UserID}); err != nil {
		return err
	}
	w.logger.WithField("user_id", req.UserID).Info("verification email sent")
	return nil
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env)

	if cfg.MailSendEnabled && (cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "") {
		log.Fatal("Mailgun not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := broker.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()

	rr := broker.NewRequestReply(conn, logger)
	if err := rr.Start(ctx); err != nil {
		log.Fatalf("failed to start reply consumer: %v", err)
	}

	w := &worker{
		rr:     rr,
		conn:   conn,
		mg:     mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender),
		cfg:    cfg,
		logger: logger,
	}

	registry := broker.NewRegistry(logger)
	registry.Register(events.QueueVerificationEmail, w.handleVerificationEmail)

	consumer := broker.NewConsumer(conn, registry, logger)
	if err := consumer.Start(ctx); err != nil {
		log.Fatalf("failed to start consumer: %v", err)
	}

	logger.Infof("email worker listening on queue=%s", events.QueueVerificationEmail)
	<-ctx.Done()
	logger.Info("shutting down")
}
