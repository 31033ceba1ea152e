package domain

import (
	"errors"
	"time"
)

// Kind selects what an export job dumps.
type Kind string

const (
	KindLeads         Kind = "leads"
	KindOpportunities Kind = "opportunities"
	KindKPIs          Kind = "kpis"
)

func (k Kind) Valid() bool {
	return k == KindLeads || k == KindOpportunities || k == KindKPIs
}

// Status is the job lifecycle state.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// FormatCSV is the only supported output format.
const FormatCSV = "csv"

// ExportJob is an async data dump. Payload holds the generated file once the
// job is done.
type ExportJob struct {
	ID          string
	OrgID       string
	RequestedBy string
	Kind        Kind
	Format      string
	Status      Status
	Payload     []byte
	Error       string
	CreatedAt   time.Time
	FinishedAt  *time.Time
}

func (j *ExportJob) Validate() error {
	if !j.Kind.Valid() {
		return errors.New("kind must be leads, opportunities, or kpis")
	}
	if j.Format == "" {
		j.Format = FormatCSV
	}
	if j.Format != FormatCSV {
		return errors.New("only csv format is supported")
	}
	return nil
}
