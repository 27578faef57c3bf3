package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/fablestreet/marketsim/internal/domain"
)

// uploadTimeout bounds a single archive upload, including the drain pass
// during shutdown.
const uploadTimeout = 30 * time.Second

// Archiver writes completed simulation batches to object storage as JSONL,
// one object per batch keyed by creation date. Uploads run on a background
// loop fed through a bounded queue; producers never block on S3.
type Archiver struct {
	writer *Writer
	s3     *s3.Client
	bucket string
	queue  chan archiveJob
	logger *slog.Logger
}

type archiveJob struct {
	batch domain.SimulationBatch
	ticks []domain.SimulationTick
}

// NewArchiver creates an Archiver with a queue of the given capacity.
func NewArchiver(c *Client, queueSize int, logger *slog.Logger) *Archiver {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Archiver{
		writer: NewWriter(c),
		s3:     c.S3(),
		bucket: c.Bucket(),
		queue:  make(chan archiveJob, queueSize),
		logger: logger,
	}
}

// Enqueue hands a batch to the background loop. When the queue is full the
// batch is dropped with a warning; archival is best effort.
func (a *Archiver) Enqueue(batch domain.SimulationBatch, ticks []domain.SimulationTick) {
	select {
	case a.queue <- archiveJob{batch: batch, ticks: ticks}:
	default:
		a.logger.Warn("archiver: queue full, dropping batch",
			slog.String("batch_id", batch.ID),
		)
	}
}

// Run consumes the queue until ctx is cancelled, then drains whatever is
// still queued before returning.
func (a *Archiver) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			a.drain()
			return ctx.Err()
		case job := <-a.queue:
			a.upload(ctx, job)
		}
	}
}

func (a *Archiver) drain() {
	for {
		select {
		case job := <-a.queue:
			ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
			a.upload(ctx, job)
			cancel()
		default:
			return
		}
	}
}

// upload writes one batch object. Keys already present are skipped so a
// replayed batch never overwrites its archive.
func (a *Archiver) upload(ctx context.Context, job archiveJob) {
	key := archiveKey(job.batch)

	exists, err := a.exists(ctx, key)
	if err != nil {
		a.logger.Warn("archiver: existence check failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	if exists {
		a.logger.Debug("archiver: batch already archived",
			slog.String("key", key),
		)
		return
	}

	buf, err := encodeArchive(job.batch, job.ticks)
	if err != nil {
		a.logger.Error("archiver: encode batch failed",
			slog.String("batch_id", job.batch.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	if int64(len(buf)) >= minPartSize {
		err = a.writer.PutMultipart(ctx, key, bytes.NewReader(buf), minPartSize)
	} else {
		err = a.writer.Put(ctx, key, bytes.NewReader(buf), "application/x-ndjson")
	}
	if err != nil {
		a.logger.Error("archiver: upload failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return
	}

	a.logger.Info("archiver: batch archived",
		slog.String("key", key),
		slog.Int("ticks", len(job.ticks)),
		slog.Int("bytes", len(buf)),
	)
}

// exists checks for the key with a HeadObject request.
func (a *Archiver) exists(ctx context.Context, key string) (bool, error) {
	_, err := a.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("s3blob: head %s: %w", key, err)
	}
	return true, nil
}

// archiveKey partitions batch objects by creation date.
//
//	batches/2026/08/24/<batch-id>.jsonl
func archiveKey(batch domain.SimulationBatch) string {
	return fmt.Sprintf("batches/%s/%s.jsonl",
		batch.CreatedAt.UTC().Format("2006/01/02"), batch.ID)
}

// encodeArchive serialises a batch as JSONL: the batch record on the first
// line, one tick per line after it.
func encodeArchive(batch domain.SimulationBatch, ticks []domain.SimulationTick) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(batch); err != nil {
		return nil, fmt.Errorf("jsonl encode batch: %w", err)
	}
	for i, tick := range ticks {
		if err := enc.Encode(tick); err != nil {
			return nil, fmt.Errorf("jsonl encode tick %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// isNotFound reports whether the error is an S3 404. HeadObject returns a
// generic NotFound rather than NoSuchKey; some compatible providers only
// set the HTTP status.
func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	type httpResponseError interface {
		HTTPStatusCode() int
	}
	var httpErr httpResponseError
	if errors.As(err, &httpErr) && httpErr.HTTPStatusCode() == 404 {
		return true
	}

	return false
}
