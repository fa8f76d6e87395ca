package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLowStockScan triggers the nightly low-stock report.
	TaskLowStockScan = "stock:lowstock_scan"
	// TaskLedgerVerify triggers the ledger replay verification sweep.
	TaskLedgerVerify = "stock:ledger_verify"
)

// LowStockScanPayload carries scan parameters.
type LowStockScanPayload struct {
	Threshold    int64     `json:"threshold"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewLowStockScanTask constructs an Asynq task for the low-stock scan.
// A zero threshold uses each product's own minimum.
func NewLowStockScanTask(threshold int64, at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(LowStockScanPayload{Threshold: threshold, ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, body, asynq.Queue(QueueDefault)), nil
}

// LedgerVerifyPayload carries verification parameters.
type LedgerVerifyPayload struct {
	Concurrency  int       `json:"concurrency"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewLedgerVerifyTask constructs an Asynq task for the replay sweep.
func NewLedgerVerifyTask(concurrency int, at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(LedgerVerifyPayload{Concurrency: concurrency, ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerVerify, body, asynq.Queue(QueueDefault)), nil
}
