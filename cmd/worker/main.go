package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/robfig/cron/v3"

	"coach-backend/internal/bootstrap"
	"coach-backend/internal/shared/config"
	"coach-backend/internal/shared/metrics"
	"coach-backend/internal/shared/telemetry"
	"coach-backend/internal/workerproc"
)

const (
	sqsRegion                 = "us-east-1"
	defaultVisibilitySeconds  = 600
	defaultWorkerConcurrency  = 4
	defaultShutdownTimeoutSec = 30
	creditSweepSchedule       = "@hourly"
)

func main() {
	cfg := config.Load()

	queueURL := strings.TrimSpace(os.Getenv("CC_SQS_QUEUE_URL"))
	if queueURL == "" {
		log.Fatal("CC_SQS_QUEUE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	visibilitySeconds := envInt("CC_SQS_VISIBILITY_TIMEOUT_SECONDS", defaultVisibilitySeconds)
	concurrency := envInt("CC_WORKER_CONCURRENCY", defaultWorkerConcurrency)
	shutdownTimeout := time.Duration(envInt("CC_SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(sqsRegion))
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}
	var sqsClient sqsAPI = sqs.NewFromConfig(awsCfg)

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	sweeper := startCreditSweep(ctx, app)
	defer sweeper.Stop()

	sem := make(chan struct{}, max(1, concurrency))
	var wg sync.WaitGroup

	log.Printf("worker started queue=%s concurrency=%d visibility=%ds", queueURL, concurrency, visibilitySeconds)

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		resp, err := sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   int32(visibilitySeconds),
			AttributeNames:      []sqstypes.QueueAttributeName{sqstypes.QueueAttributeName("ApproximateReceiveCount")},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break pollLoop
			}
			log.Printf("receive message: %v", err)
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			metrics.IncReportJobsReceived()
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				handleMessage(ctx, app, sqsClient, queueURL, m)
			}(msg)
		}
	}

	log.Printf("shutdown requested, waiting up to %s for in-flight jobs", shutdownTimeout)
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		log.Printf("shutdown timeout reached; exiting with in-flight jobs")
	}
}

// startCreditSweep refills lapsed credit windows on a schedule so balances
// stay fresh even for users who never hit a billable route.
func startCreditSweep(ctx context.Context, app *bootstrap.App) *cron.Cron {
	c := cron.New()
	_, err := c.AddFunc(creditSweepSchedule, func() {
		refilled, err := app.CreditsService.SweepExpired(ctx)
		if err != nil {
			telemetry.Error("worker.credit_sweep.failed", map[string]any{"error": err.Error()})
			return
		}
		if refilled > 0 {
			telemetry.Info("worker.credit_sweep.completed", map[string]any{"refilled": refilled})
		}
	})
	if err != nil {
		log.Fatalf("schedule credit sweep: %v", err)
	}
	c.Start()
	return c
}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

func handleMessage(ctx context.Context, app *bootstrap.App, client sqsAPI, queueURL string, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)

	decoded, meta, err := workerproc.ParseMessage(body)
	if err != nil {
		switch e := err.(type) {
		case workerproc.ErrEmptyBody:
			fields := baseFields(msg, "", "")
			fields["body_len"] = 0
			telemetry.Error("worker.report.empty_body", fields)
		case workerproc.ErrDecode:
			fields := baseFields(msg, "", "")
			fields["body_len"] = meta.BodyLen
			fields["body_sha256"] = meta.BodySHA
			fields["error"] = e.Err.Error()
			telemetry.Error("worker.report.decode_failed", fields)
		case workerproc.ErrMissingSessionID:
			fields := baseFields(msg, "", e.RequestID)
			fields["body_len"] = meta.BodyLen
			fields["body_sha256"] = meta.BodySHA
			telemetry.Error("worker.report.missing_session_id", fields)
		default:
			fields := baseFields(msg, "", "")
			fields["body_len"] = meta.BodyLen
			fields["error"] = err.Error()
			telemetry.Error("worker.report.decode_failed", fields)
		}
		// Malformed payloads never become valid; drop them.
		if deleteMessage(ctx, client, queueURL, msg, "", "") {
			metrics.IncReportJobsDropped()
		}
		return
	}

	telemetry.Info("worker.report.received", baseFields(msg, decoded.SessionID, decoded.RequestID))

	if err := workerproc.HandleMessage(ctx, app.InterviewService, body); err != nil {
		var procErr workerproc.ErrProcess
		fields := baseFields(msg, decoded.SessionID, decoded.RequestID)
		if errors.As(err, &procErr) {
			fields = baseFields(msg, procErr.SessionID, procErr.RequestID)
			fields["error"] = procErr.Err.Error()
		} else {
			fields["error"] = err.Error()
		}
		telemetry.Error("worker.report.failed", fields)
		metrics.IncReportJobsFailed()
		return
	}

	if deleteMessage(ctx, client, queueURL, msg, decoded.SessionID, decoded.RequestID) {
		telemetry.Info("worker.report.completed", baseFields(msg, decoded.SessionID, decoded.RequestID))
		metrics.IncReportJobsCompleted()
	}
}

func deleteMessage(ctx context.Context, client sqsAPI, queueURL string, msg sqstypes.Message, sessionID, requestID string) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, sessionID, requestID)
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.report.delete_failed", fields)
		return false
	}
	if _, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, sessionID, requestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.report.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, sessionID, requestID string) map[string]any {
	fields := map[string]any{
		"session_id":     sessionID,
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	if strings.TrimSpace(requestID) != "" {
		fields["request_id"] = requestID
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	if msg.Attributes == nil {
		return 0
	}
	raw := msg.Attributes["ApproximateReceiveCount"]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
