package dataimport

import "strings"

type EntityType string

const (
	EntityClient          EntityType = "client"
	EntityEmployee        EntityType = "employee"
	EntitySite            EntityType = "site"
	EntityTask            EntityType = "task"
	EntitySupplierInvoice EntityType = "supplier-invoice"
)

// EntityTypes lists every entity kind a job can target, in a stable order.
var EntityTypes = []EntityType{
	EntityClient,
	EntityEmployee,
	EntitySite,
	EntityTask,
	EntitySupplierInvoice,
}

func ParseEntityType(raw string) (EntityType, error) {
	candidate := EntityType(strings.ToLower(strings.TrimSpace(raw)))
	for _, entity := range EntityTypes {
		if entity == candidate {
			return entity, nil
		}
	}
	return "", ErrInvalidEntityType
}

type DuplicatePolicy string

const (
	DuplicateSkip   DuplicatePolicy = "skip"
	DuplicateUpdate DuplicatePolicy = "update"
)

// ParseDuplicatePolicy defaults to skip when raw is blank.
func ParseDuplicatePolicy(raw string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", DuplicateSkip:
		return DuplicateSkip, nil
	case DuplicateUpdate:
		return DuplicateUpdate, nil
	default:
		return "", ErrInvalidDuplicatePolicy
	}
}

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobDone       JobStatus = "done"
	JobFailed     JobStatus = "failed"
)

func ParseJobStatus(raw string) (JobStatus, error) {
	switch status := JobStatus(strings.ToLower(strings.TrimSpace(raw))); status {
	case JobPending, JobProcessing, JobDone, JobFailed:
		return status, nil
	default:
		return "", ErrInvalidJobStatus
	}
}

// Terminal reports whether a job in this status can no longer change.
func (s JobStatus) Terminal() bool {
	return s == JobDone || s == JobFailed
}
