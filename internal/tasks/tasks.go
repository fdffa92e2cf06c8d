package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register the PNG decoder for image.Decode
	"io"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"

	"github.com/muhdb91/therinproperty/internal/config"
	"github.com/muhdb91/therinproperty/internal/email"
	"github.com/muhdb91/therinproperty/internal/notify"
)

// TaskType defines the type of a background task.
const (
	TypeLeadNotify   = "lead:notify"
	TypeImageProcess = "image:process"
)

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return asynq.NewClient(clientOpt)
}

// NotifyPayload is the wire form of a queued notification.
type NotifyPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// QueueDeliverer implements notify.Deliverer by enqueuing a delivery task.
// Tasks are enqueued with zero retries: a failed notification is dropped,
// never queued for later (delivery is best-effort by contract).
type QueueDeliverer struct {
	client *asynq.Client
}

func NewQueueDeliverer(client *asynq.Client) *QueueDeliverer {
	return &QueueDeliverer{client: client}
}

func (d *QueueDeliverer) Deliver(ctx context.Context, subject, body, toEmail string) error {
	payload, err := json.Marshal(NotifyPayload{To: toEmail, Subject: subject, Body: body})
	if err != nil {
		return fmt.Errorf("failed to marshal notify payload: %w", err)
	}
	task := asynq.NewTask(TypeLeadNotify, payload)
	if _, err := d.client.EnqueueContext(ctx, task, asynq.MaxRetry(0), asynq.Queue("default")); err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return nil
}

// ImagePayload names an uploaded object to normalize.
type ImagePayload struct {
	S3Key string `json:"s3_key"`
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	cfg         *config.Config
	emailSender email.Sender
	s3Client    *s3.Client
}

func NewTaskProcessor(cfg *config.Config, emailSender email.Sender, s3Client *s3.Client) *TaskProcessor {
	return &TaskProcessor{
		cfg:         cfg,
		emailSender: emailSender,
		s3Client:    s3Client,
	}
}

// SetupServer configures an Asynq server and its mux for the requested
// worker roles. Returns nil when no role is requested (API-only mode).
func SetupServer(rdb *redis.Client, processor *TaskProcessor, isImageWorker, isBgWorker bool) (*asynq.Server, *asynq.ServeMux) {
	if !isBgWorker && !isImageWorker {
		fmt.Println("Running in API mode, no task server started.")
		return nil, nil
	}

	serverOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"default": 3,
				"images":  5,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				fmt.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v\n", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	if isBgWorker {
		mux.HandleFunc(TypeLeadNotify, processor.HandleLeadNotifyTask)
		fmt.Println("Registered lead notification task handler.")
	}
	if isImageWorker {
		mux.HandleFunc(TypeImageProcess, processor.HandleImageProcessTask)
		fmt.Println("Registered image processing task handler.")
	}
	return srv, mux
}

// --- Task Handlers ---

// HandleLeadNotifyTask delivers a queued notification email. Failures are
// terminal: notifications are never retried.
func (p *TaskProcessor) HandleLeadNotifyTask(ctx context.Context, t *asynq.Task) error {
	var payload NotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal notify payload: %v: %w", err, asynq.SkipRetry)
	}

	deliverer := notify.NewEmailDeliverer(p.cfg, p.emailSender)
	if err := deliverer.Deliver(ctx, payload.Subject, payload.Body, payload.To); err != nil {
		log.Printf("Notification delivery failed (dropped): %v", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return nil
}

// HandleImageProcessTask normalizes an uploaded image: bounds the larger
// dimension and re-encodes as JPEG in place.
func (p *TaskProcessor) HandleImageProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ImagePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image payload: %v: %w", err, asynq.SkipRetry)
	}

	log.Printf("Processing image task: S3Key=%s", payload.S3Key)

	getObjectOutput, err := p.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.cfg.AwsS3Bucket),
		Key:    aws.String(payload.S3Key),
	})
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", payload.S3Key, err)
	}
	defer getObjectOutput.Body.Close()

	raw, err := io.ReadAll(getObjectOutput.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", payload.S3Key, err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		// Not an image we can process; leave the object as uploaded.
		log.Printf("Skipping undecodable image %s: %v", payload.S3Key, err)
		return fmt.Errorf("undecodable image: %w", asynq.SkipRetry)
	}

	maxDim := uint(p.cfg.ImageMaxDimension)
	bounds := img.Bounds()
	if uint(bounds.Dx()) > maxDim || uint(bounds.Dy()) > maxDim {
		img = resize.Thumbnail(maxDim, maxDim, img, resize.Lanczos3)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: 85}); err != nil {
		return fmt.Errorf("failed to encode %s: %w", payload.S3Key, err)
	}

	_, err = p.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.AwsS3Bucket),
		Key:         aws.String(payload.S3Key),
		Body:        bytes.NewReader(out.Bytes()),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload processed image %s: %w", payload.S3Key, err)
	}

	log.Printf("Image task processed: S3Key=%s (%d -> %d bytes)", payload.S3Key, len(raw), out.Len())
	return nil
}
