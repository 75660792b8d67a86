package handlers

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CloudUploadTask asks the drive bridge to mirror a record's files.
type CloudUploadTask struct {
	RecordType string
	RecordID   uuid.UUID
	FileKeys   []string
}

// CloudUploader mirrors record attachments to the external drive bridge
// after commit. Tasks are fire-and-forget: failures are logged, never
// surfaced, and the queue never holds a database transaction.
type CloudUploader struct {
	tasks  chan CloudUploadTask
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	client *http.Client
}

func NewCloudUploader() *CloudUploader {
	ctx, cancel := context.WithCancel(context.Background())
	cu := &CloudUploader{
		tasks:  make(chan CloudUploadTask, 256),
		ctx:    ctx,
		cancel: cancel,
		client: &http.Client{Timeout: 60 * time.Second},
	}
	cu.wg.Add(1)
	go cu.run()
	return cu
}

// Enqueue schedules a task. A full queue drops the task with a log line
// rather than blocking the caller.
func (cu *CloudUploader) Enqueue(task CloudUploadTask) {
	select {
	case cu.tasks <- task:
	default:
		log.Printf("⚠️  Cloud upload queue full, dropping task for %s %s", task.RecordType, task.RecordID)
	}
}

// Shutdown stops the worker and waits for the in-flight task to finish.
func (cu *CloudUploader) Shutdown() {
	cu.cancel()
	cu.wg.Wait()
}

func (cu *CloudUploader) run() {
	defer cu.wg.Done()
	for {
		select {
		case <-cu.ctx.Done():
			return
		case task := <-cu.tasks:
			if err := cu.upload(task); err != nil {
				log.Printf("❌ Cloud upload failed for %s %s: %v", task.RecordType, task.RecordID, err)
				continue
			}
			log.Printf("✅ Cloud upload done for %s %s (%d files)", task.RecordType, task.RecordID, len(task.FileKeys))
		}
	}
}

func (cu *CloudUploader) upload(task CloudUploadTask) error {
	endpoint := os.Getenv("DRIVE_BRIDGE_URL")
	if endpoint == "" {
		// No bridge configured; nothing to mirror.
		return nil
	}

	form := url.Values{}
	form.Set("record_type", task.RecordType)
	form.Set("record_id", task.RecordID.String())
	form.Set("file_keys", strings.Join(task.FileKeys, ","))

	req, err := http.NewRequestWithContext(cu.ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := cu.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("⚠️  Drive bridge returned %d for %s %s", resp.StatusCode, task.RecordType, task.RecordID)
	}
	return nil
}
