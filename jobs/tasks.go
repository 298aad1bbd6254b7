package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReconScan triggers the nightly reconciliation scan.
	TaskReconScan = "recon:scan"
)

// ReconScanPayload scopes one scan run. A zero StationID scans every station;
// a zero Date scans the previous calendar day.
type ReconScanPayload struct {
	StationID    int64     `json:"station_id"`
	Date         time.Time `json:"date"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewReconScanTask constructs an Asynq task for the reconciliation scan.
func NewReconScanTask(payload ReconScanPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReconScan, body, asynq.Queue(QueueDefault)), nil
}
