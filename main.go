package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/muhdb91/therinproperty/internal/api"
	"github.com/muhdb91/therinproperty/internal/api/handlers"
	"github.com/muhdb91/therinproperty/internal/config"
	"github.com/muhdb91/therinproperty/internal/email"
	"github.com/muhdb91/therinproperty/internal/notify"
	"github.com/muhdb91/therinproperty/internal/state"
	"github.com/muhdb91/therinproperty/internal/storage"
	"github.com/muhdb91/therinproperty/internal/store"
	"github.com/muhdb91/therinproperty/internal/tasks"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (notification delivery), 'img' (image processing), 'all' (default)")

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*runMode)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the persistent store (file, redis or mongo)
	st, err := store.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize store (%s): %v", cfg.StoreBackend, err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Printf("Error closing store: %v", err)
		}
	}()

	// Redis carries the task queue and the mock email sink. The redis store
	// backend holds its own connection; this one is optional everywhere
	// else, and without it notifications deliver in-process.
	var redisClient *redis.Client
	rc := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rc.Ping(ctx).Err(); err != nil {
		rc.Close()
		log.Printf("Redis unavailable at %s, running without task queue: %v", cfg.RedisAddr, err)
	} else {
		redisClient = rc
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("Error disconnecting from Redis: %v", err)
			}
		}()
	}

	// Initialize Email Sender
	var primaryEmailSender email.Sender
	if os.Getenv("MOCK_SERVICES") == "true" && redisClient != nil {
		log.Println("MOCK_SERVICES enabled: Using Redis email sender.")
		primaryEmailSender = email.NewRedisSender(redisClient, cfg)
	} else {
		primaryEmailSender = email.NewSMTPSender(cfg)
	}

	compositeSender := email.NewCompositeEmailSender(primaryEmailSender)

	// Optionally add FileEmailSender if LOG_EMAILS is set
	logEmailsPath := os.Getenv("LOG_EMAILS")
	if logEmailsPath != "" {
		log.Printf("LOG_EMAILS set to '%s', enabling file email logger.", logEmailsPath)
		fileSender, err := email.NewFileEmailSender(logEmailsPath, cfg)
		if err != nil {
			log.Printf("WARNING: Failed to initialize file email sender (LOG_EMAILS='%s'): %v. Proceeding without file logging.", logEmailsPath, err)
		} else {
			compositeSender.AddSender(fileSender)
		}
	}

	finalEmailSender := email.Sender(compositeSender)

	// Notification delivery goes through the queue when redis is up so the
	// API never blocks on SMTP. Failed deliveries are dropped, not retried.
	var taskClient *asynq.Client
	var handlerTaskClient handlers.IAsynqClient
	var deliverer notify.Deliverer
	if redisClient != nil {
		taskClient = tasks.NewClient(redisClient)
		defer taskClient.Close()
		handlerTaskClient = taskClient
		deliverer = tasks.NewQueueDeliverer(taskClient)
	} else {
		deliverer = notify.NewEmailDeliverer(cfg, finalEmailSender)
	}
	dispatcher := notify.NewDispatcher(deliverer)

	// Hydrate shared state and start consuming cross-context changes.
	container, err := state.NewContainer(ctx, st, dispatcher)
	if err != nil {
		log.Fatalf("Failed to initialize state container: %v", err)
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := container.Run(ctx); err != nil {
			log.Printf("State container watch stopped: %v", err)
		}
	}()

	// S3 is optional; without a bucket the upload endpoints report the
	// capability as unavailable.
	var storageService storage.IS3Storage
	var s3Client *s3.Client
	if cfg.AwsS3Bucket != "" {
		storageService, err = storage.NewS3Storage(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize S3 storage: %v", err)
		}
		awsCfg, err := aws_config.LoadDefaultConfig(ctx,
			aws_config.WithRegion(cfg.AwsRegion),
			aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AwsAccessKeyID,
				cfg.AwsSecretAccessKey,
				"",
			)),
		)
		if err != nil {
			log.Fatalf("Failed to load AWS config for S3 client: %v", err)
		}
		s3Client = s3.NewFromConfig(awsCfg)
	} else {
		log.Println("AWS_S3_BUCKET not set, image uploads disabled.")
	}

	taskProcessor := tasks.NewTaskProcessor(cfg, finalEmailSender, s3Client)

	// --- Mode-specific servers ---
	var apiSrv *http.Server
	var backgroundTaskSrv *asynq.Server
	var imageTaskSrv *asynq.Server

	fmt.Printf("Starting application in '%s' mode...\n", cfg.RunMode)

	apiMode := func() {
		router := api.SetupRouter(cfg, container, dispatcher, storageService, handlerTaskClient)
		apiSrv = &http.Server{
			Addr:    ":" + cfg.ApiPort,
			Handler: router,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			fmt.Printf("API listening on :%s\n", cfg.ApiPort)
			if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("API ListenAndServe error: %v", err)
			}
			fmt.Println("API server stopped.")
		}()
	}

	workerMode := func(isImageWorker, isBgWorker bool) *asynq.Server {
		if redisClient == nil {
			log.Println("Redis unavailable, worker not started.")
			return nil
		}
		srv, mux := tasks.SetupServer(redisClient, taskProcessor, isImageWorker, isBgWorker)
		if srv == nil {
			return nil
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(mux); err != nil {
				log.Fatalf("Task server error: %v", err)
			}
			fmt.Println("Task server stopped.")
		}()
		return srv
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		backgroundTaskSrv = workerMode(false, true)
	case "img":
		imageTaskSrv = workerMode(true, false)
	case "all":
		apiMode()
		backgroundTaskSrv = workerMode(true, true)
	default:
		log.Fatalf("Invalid run mode specified: %s.", cfg.RunMode)
	}

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	fmt.Printf("\nReceived signal: %s. Shutting down gracefully...\n", sig)

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if apiSrv != nil {
		fmt.Println("Shutting down API server...")
		if err := apiSrv.Shutdown(ctxShutdown); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}
	}

	if backgroundTaskSrv != nil {
		fmt.Println("Shutting down background task server...")
		backgroundTaskSrv.Shutdown()
	}
	if imageTaskSrv != nil {
		fmt.Println("Shutting down image task server...")
		imageTaskSrv.Shutdown()
	}

	// Stop the state watcher last so late external writes still land.
	cancel()

	fmt.Println("Waiting for servers to stop...")
	wg.Wait()

	fmt.Println("Server gracefully stopped")
}
