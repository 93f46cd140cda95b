package dataimport_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	app "github.com/bizadmin/record-import/internal/application/dataimport"
	domain "github.com/bizadmin/record-import/internal/domain/dataimport"
	"github.com/bizadmin/record-import/internal/domain/schema"
)

const workerJobID = "0d5f3c1e-2b7a-4c9e-8f10-6a2b3c4d5e6f"

func employeeMapping() domain.ColumnMapping {
	return domain.ColumnMapping{
		{Column: "First name", Field: "firstName"},
		{Column: "Last name", Field: "lastName"},
		{Column: "Work email", Field: "professionalEmail"},
	}
}

func employeeSheet(rows ...domain.SheetRow) domain.Sheet {
	return domain.Sheet{
		Name:    "Sheet1",
		Headers: []string{"First name", "Last name", "Work email"},
		Rows:    rows,
	}
}

func pendingEmployeeJob(maxAttempts int) domain.ImportJob {
	return domain.ImportJob{
		ID:              workerJobID,
		EntityType:      domain.EntityEmployee,
		FileURL:         "file:///imports/staff.xlsx",
		Mapping:         employeeMapping(),
		DuplicatePolicy: domain.DuplicateSkip,
		Status:          domain.JobPending,
		MaxAttempts:     maxAttempts,
	}
}

type workerFixture struct {
	repo     *fakeJobRepo
	storage  *fakeStorage
	reader   *fakeReader
	upserter *fakeUpserter
	factory  *fakeUpserterFactory
	locker   *fakeLocker
	worker   *app.ImportWorker
}

func newWorkerFixture(job domain.ImportJob, sheet domain.Sheet, cfg app.ImportWorkerConfig) *workerFixture {
	fx := &workerFixture{
		repo:     newFakeJobRepo(job),
		storage:  &fakeStorage{data: []byte("xlsx")},
		reader:   &fakeReader{sheet: sheet},
		upserter: &fakeUpserter{keyField: "professionalEmail", seen: map[any]bool{}, failOn: map[any]error{}},
		locker:   &fakeLocker{},
	}
	fx.factory = &fakeUpserterFactory{upserter: fx.upserter}
	fx.worker = app.NewImportWorker(fx.repo, fx.storage, fx.reader, schema.DefaultRegistry(), fx.factory, fx.locker, nil, cfg)
	return fx
}

func TestImportWorkerRowMissingRequiredFieldIsRecordedAndJobCompletes(t *testing.T) {
	t.Parallel()

	fx := newWorkerFixture(pendingEmployeeJob(2), employeeSheet(
		domain.SheetRow{"First name": "Alice", "Last name": "Martin", "Work email": "alice@corp.test"},
		domain.SheetRow{"First name": "Bob", "Last name": "Durand", "Work email": ""},
		domain.SheetRow{"First name": "Chloe", "Last name": "Petit", "Work email": "chloe@corp.test"},
	), app.ImportWorkerConfig{})

	if err := fx.worker.ProcessJob(context.Background(), workerJobID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if fx.repo.totalRows != 3 {
		t.Fatalf("expected total=3, got %d", fx.repo.totalRows)
	}
	done := fx.repo.completed
	if done == nil {
		t.Fatal("expected job to complete")
	}
	if done.ProcessedRows != 3 || done.ErrorRows != 1 || done.CreatedRows != 2 {
		t.Fatalf("unexpected progress: %+v", *done)
	}
	if len(done.Errors) != 1 {
		t.Fatalf("expected 1 row error, got %+v", done.Errors)
	}
	if done.Errors[0].Row != 3 || done.Errors[0].Field != "professionalEmail" {
		t.Fatalf("unexpected row error: %+v", done.Errors[0])
	}
	if fx.upserter.calls != 2 {
		t.Fatalf("invalid rows must never reach the upsert engine, got %d calls", fx.upserter.calls)
	}
	if !fx.locker.lease.released {
		t.Fatal("expected job lock to be released")
	}
}

func TestImportWorkerUpsertErrorsBecomeWholeRowErrors(t *testing.T) {
	t.Parallel()

	fx := newWorkerFixture(pendingEmployeeJob(2), employeeSheet(
		domain.SheetRow{"First name": "Alice", "Last name": "Martin", "Work email": "alice@corp.test"},
		domain.SheetRow{"First name": "Alice", "Last name": "Martin", "Work email": "alice@corp.test"},
		domain.SheetRow{"First name": "Jean", "Last name": "Dupond", "Work email": "jean@corp.test"},
	), app.ImportWorkerConfig{})
	fx.upserter.failOn["jean@corp.test"] = errBoom

	if err := fx.worker.ProcessJob(context.Background(), workerJobID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	done := fx.repo.completed
	if done == nil {
		t.Fatal("expected job to complete")
	}
	if done.ProcessedRows != 3 || done.CreatedRows != 1 || done.SkippedRows != 1 || done.ErrorRows != 1 {
		t.Fatalf("unexpected progress: %+v", *done)
	}
	if done.Errors[0].Row != 4 || done.Errors[0].Field != "" || done.Errors[0].Message != "boom" {
		t.Fatalf("unexpected row error: %+v", done.Errors[0])
	}
}

func TestImportWorkerCheckpointsEveryNRows(t *testing.T) {
	t.Parallel()

	rows := make([]domain.SheetRow, 0, 5)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		rows = append(rows, domain.SheetRow{"First name": name, "Last name": "Test", "Work email": name + "@corp.test"})
	}
	fx := newWorkerFixture(pendingEmployeeJob(2), employeeSheet(rows...), app.ImportWorkerConfig{CheckpointEvery: 2})

	if err := fx.worker.ProcessJob(context.Background(), workerJobID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(fx.repo.checkpoints) != 2 {
		t.Fatalf("expected 2 checkpoints, got %d", len(fx.repo.checkpoints))
	}
	if fx.repo.checkpoints[1].Cursor != 5 || fx.repo.checkpoints[1].ProcessedRows != 4 {
		t.Fatalf("unexpected checkpoint: %+v", fx.repo.checkpoints[1])
	}
}

func TestImportWorkerResumesAfterCursor(t *testing.T) {
	t.Parallel()

	job := pendingEmployeeJob(3)
	job.Attempts = 1
	job.Cursor = 3
	job.ProcessedRows = 2
	job.CreatedRows = 1
	job.ErrorRows = 1
	job.Errors = []domain.RowError{{Row: 3, Field: "professionalEmail", Message: "professionalEmail is required"}}

	fx := newWorkerFixture(job, employeeSheet(
		domain.SheetRow{"First name": "Alice", "Last name": "Martin", "Work email": "alice@corp.test"},
		domain.SheetRow{"First name": "Bob", "Last name": "Durand"},
		domain.SheetRow{"First name": "Chloe", "Last name": "Petit", "Work email": "chloe@corp.test"},
	), app.ImportWorkerConfig{})

	if err := fx.worker.ProcessJob(context.Background(), workerJobID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	done := fx.repo.completed
	if done == nil {
		t.Fatal("expected job to complete")
	}
	if fx.upserter.calls != 1 {
		t.Fatalf("expected only the row after the cursor to be applied, got %d", fx.upserter.calls)
	}
	if done.ProcessedRows != 3 || done.CreatedRows != 2 || done.ErrorRows != 1 || len(done.Errors) != 1 {
		t.Fatalf("unexpected progress: %+v", *done)
	}
}

func TestImportWorkerFetchFailureRequeuesWhileAttemptsRemain(t *testing.T) {
	t.Parallel()

	fx := newWorkerFixture(pendingEmployeeJob(2), employeeSheet(), app.ImportWorkerConfig{})
	fx.storage.fetchErr = errBoom

	err := fx.worker.ProcessJob(context.Background(), workerJobID)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(fx.repo.requeued, "boom") {
		t.Fatalf("expected requeue reason to carry the cause, got %q", fx.repo.requeued)
	}
	if fx.repo.failed != nil {
		t.Fatal("did not expect fail to be called")
	}
}

func TestImportWorkerFetchFailureOnLastAttemptFailsJob(t *testing.T) {
	t.Parallel()

	job := pendingEmployeeJob(2)
	job.Attempts = 1
	fx := newWorkerFixture(job, employeeSheet(), app.ImportWorkerConfig{})
	fx.storage.fetchErr = errBoom

	if err := fx.worker.ProcessJob(context.Background(), workerJobID); err == nil {
		t.Fatal("expected error")
	}
	if fx.repo.requeued != "" {
		t.Fatal("did not expect requeue")
	}
	failed := fx.repo.failed
	if failed == nil {
		t.Fatal("expected fail to be called")
	}
	if len(failed.Errors) != 1 || failed.Errors[0].Row != 0 || !strings.Contains(failed.Errors[0].Message, "fetch import file") {
		t.Fatalf("expected a row 0 error, got %+v", failed.Errors)
	}
}

func TestImportWorkerUnreadableWorkbookFailsJob(t *testing.T) {
	t.Parallel()

	fx := newWorkerFixture(pendingEmployeeJob(1), employeeSheet(), app.ImportWorkerConfig{})
	fx.reader.err = errBoom

	if err := fx.worker.ProcessJob(context.Background(), workerJobID); err == nil {
		t.Fatal("expected error")
	}
	if fx.repo.failed == nil {
		t.Fatal("expected fail to be called")
	}
}

func TestImportWorkerMissingJobIsDropped(t *testing.T) {
	t.Parallel()

	fx := newWorkerFixture(pendingEmployeeJob(2), employeeSheet(), app.ImportWorkerConfig{})

	if err := fx.worker.ProcessJob(context.Background(), "d2c1b0a9-0000-4000-8000-000000000000"); err != nil {
		t.Fatalf("expected nil for a missing job, got %v", err)
	}
	if len(fx.storage.fetchedAt) != 0 {
		t.Fatal("did not expect any file fetch")
	}
}

func TestImportWorkerSkipsJobLockedElsewhere(t *testing.T) {
	t.Parallel()

	fx := newWorkerFixture(pendingEmployeeJob(2), employeeSheet(), app.ImportWorkerConfig{})
	fx.locker.held = true

	if err := fx.worker.ProcessJob(context.Background(), workerJobID); !errors.Is(err, app.ErrJobLocked) {
		t.Fatalf("expected ErrJobLocked, got %v", err)
	}
	if fx.repo.jobs[workerJobID].Attempts != 0 {
		t.Fatal("locked job must not be marked processing")
	}
}

func TestImportWorkerLockedProcessingJobAsksForRedelivery(t *testing.T) {
	t.Parallel()

	// a worker died mid-job and its lease has not expired yet
	job := pendingEmployeeJob(2)
	job.Status = domain.JobProcessing
	job.Attempts = 1
	fx := newWorkerFixture(job, employeeSheet(), app.ImportWorkerConfig{})
	fx.locker.held = true

	err := fx.worker.ProcessJob(context.Background(), workerJobID)
	if !errors.Is(err, app.ErrJobLocked) {
		t.Fatalf("expected ErrJobLocked so the delivery is retried, got %v", err)
	}
	if got := fx.repo.jobs[workerJobID]; got.Status != domain.JobProcessing || got.Attempts != 1 {
		t.Fatalf("locked job must be left untouched, got %s attempts=%d", got.Status, got.Attempts)
	}
}

func TestImportWorkerFailJobFinalizesPendingJob(t *testing.T) {
	t.Parallel()

	job := pendingEmployeeJob(2)
	job.Attempts = 1
	fx := newWorkerFixture(job, employeeSheet(), app.ImportWorkerConfig{})
	fx.locker.err = errors.New("redis: connection refused")

	if err := fx.worker.FailJob(context.Background(), workerJobID, "acquire job lock: redis: connection refused"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if got := fx.repo.jobs[workerJobID].Status; got != domain.JobFailed {
		t.Fatalf("expected failed, got %s", got)
	}
	failed := fx.repo.failed
	if failed == nil || len(failed.Errors) != 1 || failed.Errors[0].Row != 0 || !strings.Contains(failed.Errors[0].Message, "connection refused") {
		t.Fatalf("expected a row 0 error, got %+v", failed)
	}
}

func TestImportWorkerFailJobKeepsCheckpointedProgress(t *testing.T) {
	t.Parallel()

	job := pendingEmployeeJob(2)
	job.ProcessedRows = 4
	job.ErrorRows = 1
	job.Cursor = 5
	job.Errors = []domain.RowError{{Row: 3, Field: "professionalEmail", Message: "professionalEmail is required"}}
	fx := newWorkerFixture(job, employeeSheet(), app.ImportWorkerConfig{})

	if err := fx.worker.FailJob(context.Background(), workerJobID, "load import job: connection reset"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	failed := fx.repo.failed
	if failed == nil || failed.ProcessedRows != 4 || len(failed.Errors) != 2 || failed.Errors[1].Row != 0 {
		t.Fatalf("unexpected fail progress: %+v", failed)
	}
	if !fx.locker.lease.released {
		t.Fatal("expected job lock to be released")
	}
}

func TestImportWorkerFailJobLeavesFinalizedOrLockedJobs(t *testing.T) {
	t.Parallel()

	done := pendingEmployeeJob(2)
	done.Status = domain.JobDone
	fx := newWorkerFixture(done, employeeSheet(), app.ImportWorkerConfig{})
	if err := fx.worker.FailJob(context.Background(), workerJobID, "boom"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if fx.repo.failed != nil {
		t.Fatal("finalized job must not change")
	}

	locked := newWorkerFixture(pendingEmployeeJob(2), employeeSheet(), app.ImportWorkerConfig{})
	locked.locker.held = true
	if err := locked.worker.FailJob(context.Background(), workerJobID, "boom"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if locked.repo.failed != nil {
		t.Fatal("job held by another worker must not be failed")
	}
}

func TestImportWorkerFailReasonIsTruncatedOnRuneBoundary(t *testing.T) {
	t.Parallel()

	fx := newWorkerFixture(pendingEmployeeJob(2), employeeSheet(), app.ImportWorkerConfig{})
	reason := strings.Repeat("a", 999) + strings.Repeat("é", 10)

	if err := fx.worker.FailJob(context.Background(), workerJobID, reason); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	message := fx.repo.failed.Errors[0].Message
	if !utf8.ValidString(message) {
		t.Fatalf("truncated reason is not valid UTF-8: %q", message[990:])
	}
	if len(message) != 999 {
		t.Fatalf("expected the split rune to be dropped, got %d bytes", len(message))
	}
}

func TestImportWorkerSkipsBlankRowsButKeepsRowNumbers(t *testing.T) {
	t.Parallel()

	fx := newWorkerFixture(pendingEmployeeJob(2), employeeSheet(
		domain.SheetRow{"First name": "Alice", "Last name": "Martin", "Work email": "alice@corp.test"},
		domain.SheetRow{"First name": "", "Last name": "  ", "Work email": ""},
		domain.SheetRow{},
		domain.SheetRow{"First name": "Bob", "Last name": "Durand"},
	), app.ImportWorkerConfig{})

	if err := fx.worker.ProcessJob(context.Background(), workerJobID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if fx.repo.totalRows != 2 {
		t.Fatalf("expected total=2, got %d", fx.repo.totalRows)
	}
	done := fx.repo.completed
	if done == nil || done.ProcessedRows != 2 || done.CreatedRows != 1 || done.ErrorRows != 1 {
		t.Fatalf("unexpected progress: %+v", done)
	}
	if done.Errors[0].Row != 5 {
		t.Fatalf("expected the error on spreadsheet row 5, got %+v", done.Errors[0])
	}
}

func TestImportWorkerIgnoresFinalizedJob(t *testing.T) {
	t.Parallel()

	job := pendingEmployeeJob(2)
	job.Status = domain.JobDone
	fx := newWorkerFixture(job, employeeSheet(), app.ImportWorkerConfig{})

	if err := fx.worker.ProcessJob(context.Background(), workerJobID); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if fx.repo.completed != nil || fx.repo.failed != nil {
		t.Fatal("finalized job must not change")
	}
}
