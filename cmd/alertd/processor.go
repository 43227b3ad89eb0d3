package main

import (
	"context"
	"log/slog"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/Wassi1m/app-surveince/internal/consumer"
	"github.com/Wassi1m/app-surveince/internal/events"
	"github.com/Wassi1m/app-surveince/internal/pipeline"
	"github.com/Wassi1m/app-surveince/pkg/metrics"
)

const consumerWorkers = 4

// work represents a unit of work for the consumer worker pool.
type work struct {
	detection *events.DetectionMessage
	msg       *kafka.Message
}

// processDetections reads detection events from Kafka and processes them
// concurrently. Blocks until ctx is cancelled.
func processDetections(ctx context.Context, kafkaConsumer *consumer.Consumer, pipe *pipeline.Pipeline, collector *metrics.Collector) {
	slog.Info("Starting detection processing loop", "workers", consumerWorkers)

	jobs := make(chan work, consumerWorkers*2)
	var wg sync.WaitGroup

	for i := 0; i < consumerWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				processOne(ctx, kafkaConsumer, pipe, job)
			}
		}()
	}

	dispatchMessages(ctx, kafkaConsumer, collector, jobs)

	close(jobs)
	wg.Wait()
	slog.Info("Detection processing loop stopped")
}

// dispatchMessages reads messages from Kafka and dispatches them to workers.
func dispatchMessages(ctx context.Context, kafkaConsumer *consumer.Consumer, collector *metrics.Collector, jobs chan<- work) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			detection, msg, err := kafkaConsumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if collector != nil {
					collector.RecordError()
				}
				// A malformed payload can never succeed; skip past it.
				if msg != nil {
					slog.Error("Skipping malformed detection event", "error", err, "offset", msg.Offset)
					commitOffset(ctx, kafkaConsumer, msg)
					continue
				}
				slog.Error("Failed to read detection event", "error", err)
				continue
			}
			jobs <- work{detection: detection, msg: msg}
		}
	}
}

// processOne runs a single detection through the pipeline and commits its
// offset. Processing failures are committed too: the detection path is
// idempotent only up to persistence, and replaying a failed message would
// duplicate detections.
func processOne(ctx context.Context, kafkaConsumer *consumer.Consumer, pipe *pipeline.Pipeline, job work) {
	event, raised, err := pipe.ProcessDetection(ctx, job.detection)
	if err != nil {
		slog.Error("Failed to process detection event",
			"error", err,
			"offset", job.msg.Offset,
		)
	} else {
		slog.Debug("Detection event processed",
			"detection_id", event.ID,
			"alerts_created", len(raised),
			"offset", job.msg.Offset,
		)
	}
	commitOffset(ctx, kafkaConsumer, job.msg)
}

// commitOffset commits a message offset, logging failures.
func commitOffset(ctx context.Context, kafkaConsumer *consumer.Consumer, msg *kafka.Message) {
	if err := kafkaConsumer.CommitMessage(ctx, msg); err != nil {
		slog.Error("Failed to commit Kafka offset", "error", err, "offset", msg.Offset)
	}
}
