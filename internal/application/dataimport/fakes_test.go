package dataimport_test

import (
	"context"
	"errors"
	"time"

	app "github.com/bizadmin/record-import/internal/application/dataimport"
	"github.com/bizadmin/record-import/internal/application/upsert"
	domain "github.com/bizadmin/record-import/internal/domain/dataimport"
)

type fakeJobRepo struct {
	jobs        map[string]*domain.ImportJob
	createErr   error
	listErr     error
	lastFilter  domain.JobFilter
	totalRows   int
	checkpoints []domain.ImportProgress
	completed   *domain.ImportProgress
	failed      *domain.ImportProgress
	requeued    string
}

func newFakeJobRepo(jobs ...domain.ImportJob) *fakeJobRepo {
	repo := &fakeJobRepo{jobs: map[string]*domain.ImportJob{}}
	for i := range jobs {
		job := jobs[i]
		repo.jobs[job.ID] = &job
	}
	return repo
}

func (f *fakeJobRepo) Create(ctx context.Context, in domain.NewImportJob) (*domain.ImportJob, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	job := &domain.ImportJob{
		ID:              "6f1c2f7e-8f4b-4d1a-9a51-3c0b3f1c2d4e",
		EntityType:      in.EntityType,
		FileURL:         in.FileURL,
		FileName:        in.FileName,
		Mapping:         in.Mapping,
		DuplicatePolicy: in.DuplicatePolicy,
		TemplateID:      in.TemplateID,
		CreatedBy:       in.CreatedBy,
		Status:          domain.JobPending,
		MaxAttempts:     in.MaxAttempts,
	}
	f.jobs[job.ID] = job
	return job, nil
}

func (f *fakeJobRepo) Get(ctx context.Context, jobID string) (*domain.ImportJob, error) {
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	clone := *job
	return &clone, nil
}

func (f *fakeJobRepo) List(ctx context.Context, filter domain.JobFilter) (domain.JobPage, error) {
	f.lastFilter = filter
	if f.listErr != nil {
		return domain.JobPage{}, f.listErr
	}
	page := domain.JobPage{Page: filter.Page, Limit: filter.Limit}
	for _, job := range f.jobs {
		page.Items = append(page.Items, *job)
	}
	page.Total = int64(len(page.Items))
	return page, nil
}

func (f *fakeJobRepo) MarkProcessing(ctx context.Context, jobID string) (*domain.ImportJob, error) {
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	if job.Status.Terminal() {
		return nil, domain.ErrJobFinalized
	}
	job.Status = domain.JobProcessing
	job.Attempts++
	clone := *job
	return &clone, nil
}

func (f *fakeJobRepo) SetTotalRows(ctx context.Context, jobID string, total int) error {
	f.totalRows = total
	f.jobs[jobID].TotalRows = total
	return nil
}

func (f *fakeJobRepo) Checkpoint(ctx context.Context, jobID string, progress domain.ImportProgress) error {
	f.checkpoints = append(f.checkpoints, progress)
	return nil
}

func (f *fakeJobRepo) Complete(ctx context.Context, jobID string, progress domain.ImportProgress, completedAt time.Time) error {
	f.completed = &progress
	f.jobs[jobID].Status = domain.JobDone
	return nil
}

func (f *fakeJobRepo) Requeue(ctx context.Context, jobID string, reason string) error {
	f.requeued = reason
	f.jobs[jobID].Status = domain.JobPending
	f.jobs[jobID].LastError = reason
	return nil
}

func (f *fakeJobRepo) Fail(ctx context.Context, jobID string, progress domain.ImportProgress, completedAt time.Time) error {
	f.failed = &progress
	if job, ok := f.jobs[jobID]; ok {
		job.Status = domain.JobFailed
	}
	return nil
}

type fakeTemplateRepo struct {
	templates map[string]domain.ImportTemplate
	created   []domain.ImportTemplate
}

func newFakeTemplateRepo(templates ...domain.ImportTemplate) *fakeTemplateRepo {
	repo := &fakeTemplateRepo{templates: map[string]domain.ImportTemplate{}}
	for _, template := range templates {
		repo.templates[template.ID] = template
	}
	return repo
}

func (f *fakeTemplateRepo) Create(ctx context.Context, template domain.ImportTemplate) (*domain.ImportTemplate, error) {
	template.ID = "tpl-new"
	template.CreatedAt = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	f.created = append(f.created, template)
	f.templates[template.ID] = template
	return &template, nil
}

func (f *fakeTemplateRepo) Get(ctx context.Context, templateID string) (*domain.ImportTemplate, error) {
	template, ok := f.templates[templateID]
	if !ok {
		return nil, domain.ErrTemplateNotFound
	}
	return &template, nil
}

func (f *fakeTemplateRepo) List(ctx context.Context, entityType domain.EntityType) ([]domain.ImportTemplate, error) {
	var out []domain.ImportTemplate
	for _, template := range f.templates {
		if entityType == "" || template.EntityType == entityType {
			out = append(out, template)
		}
	}
	return out, nil
}

func (f *fakeTemplateRepo) Delete(ctx context.Context, templateID string) error {
	if _, ok := f.templates[templateID]; !ok {
		return domain.ErrTemplateNotFound
	}
	delete(f.templates, templateID)
	return nil
}

type fakeQueue struct {
	err      error
	jobIDs   []string
	lastOpts app.EnqueueOptions
}

func (f *fakeQueue) Enqueue(ctx context.Context, jobID string, opts app.EnqueueOptions) error {
	if f.err != nil {
		return f.err
	}
	f.jobIDs = append(f.jobIDs, jobID)
	f.lastOpts = opts
	return nil
}

type fakeStorage struct {
	data      []byte
	fetchErr  error
	storeErr  error
	stored    [][]byte
	storedAs  string
	fetchedAt []string
}

func (f *fakeStorage) Store(ctx context.Context, data []byte, contentType, fileName string) (string, error) {
	if f.storeErr != nil {
		return "", f.storeErr
	}
	f.stored = append(f.stored, data)
	f.storedAs = fileName
	return "file:///imports/" + fileName, nil
}

func (f *fakeStorage) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.fetchedAt = append(f.fetchedAt, url)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.data, nil
}

type fakeReader struct {
	sheet domain.Sheet
	err   error
}

func (f *fakeReader) ReadFirstSheet(data []byte) (domain.Sheet, error) {
	if f.err != nil {
		return domain.Sheet{}, f.err
	}
	return f.sheet, nil
}

type fakeLease struct {
	released bool
}

func (f *fakeLease) Refresh(ctx context.Context) error { return nil }

func (f *fakeLease) Release(ctx context.Context) error {
	f.released = true
	return nil
}

type fakeLocker struct {
	held  bool
	err   error
	lease *fakeLease
}

func (f *fakeLocker) Acquire(ctx context.Context, jobID string, ttl time.Duration) (app.JobLease, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	if f.held {
		return nil, false, nil
	}
	f.lease = &fakeLease{}
	return f.lease, true, nil
}

// fakeUpserter creates every row unless its key field was seen before in the
// same job, and fails rows listed in failOn.
type fakeUpserter struct {
	keyField string
	seen     map[any]bool
	failOn   map[any]error
	calls    int
}

func (f *fakeUpserter) Upsert(ctx context.Context, row domain.ValidRow, policy domain.DuplicatePolicy) (upsert.Outcome, error) {
	f.calls++
	key := row[f.keyField]
	if err, ok := f.failOn[key]; ok {
		return "", err
	}
	if f.seen[key] {
		if policy == domain.DuplicateUpdate {
			return upsert.OutcomeUpdated, nil
		}
		return upsert.OutcomeSkipped, nil
	}
	f.seen[key] = true
	return upsert.OutcomeCreated, nil
}

type fakeUpserterFactory struct {
	upserter *fakeUpserter
	err      error
}

func (f *fakeUpserterFactory) ForEntity(ctx context.Context, entity domain.EntityType) (upsert.Upserter, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.upserter, nil
}

var errBoom = errors.New("boom")
