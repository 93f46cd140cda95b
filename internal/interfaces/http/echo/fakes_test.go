package echo_test

import (
	"context"

	app "github.com/bizadmin/record-import/internal/application/dataimport"
)

type fakeUploadUseCase struct {
	out app.UploadImportFileOutput
	err error
	got app.UploadImportFileInput
}

func (f *fakeUploadUseCase) Execute(ctx context.Context, in app.UploadImportFileInput) (app.UploadImportFileOutput, error) {
	f.got = in
	if f.err != nil {
		return app.UploadImportFileOutput{}, f.err
	}
	return f.out, nil
}

type fakeStartImportUseCase struct {
	out app.StartImportOutput
	err error
	got app.StartImportInput
}

func (f *fakeStartImportUseCase) Execute(ctx context.Context, in app.StartImportInput) (app.StartImportOutput, error) {
	f.got = in
	if f.err != nil {
		return app.StartImportOutput{}, f.err
	}
	return f.out, nil
}

type fakeListJobsUseCase struct {
	out app.ListImportJobsOutput
	err error
	got app.ListImportJobsInput
}

func (f *fakeListJobsUseCase) Execute(ctx context.Context, in app.ListImportJobsInput) (app.ListImportJobsOutput, error) {
	f.got = in
	if f.err != nil {
		return app.ListImportJobsOutput{}, f.err
	}
	return f.out, nil
}

type fakeGetJobUseCase struct {
	out app.ImportJobOutput
	err error
}

func (f *fakeGetJobUseCase) Execute(ctx context.Context, in app.GetImportJobInput) (app.ImportJobOutput, error) {
	if f.err != nil {
		return app.ImportJobOutput{}, f.err
	}
	return f.out, nil
}

type fakeEntityFieldsUseCase struct {
	out app.ListEntityFieldsOutput
	err error
}

func (f *fakeEntityFieldsUseCase) Execute(ctx context.Context, in app.ListEntityFieldsInput) (app.ListEntityFieldsOutput, error) {
	if f.err != nil {
		return app.ListEntityFieldsOutput{}, f.err
	}
	return f.out, nil
}

type fakeSaveTemplateUseCase struct {
	out app.ImportTemplateOutput
	err error
	got app.SaveImportTemplateInput
}

func (f *fakeSaveTemplateUseCase) Execute(ctx context.Context, in app.SaveImportTemplateInput) (app.ImportTemplateOutput, error) {
	f.got = in
	if f.err != nil {
		return app.ImportTemplateOutput{}, f.err
	}
	return f.out, nil
}

type fakeListTemplatesUseCase struct {
	out []app.ImportTemplateOutput
	err error
}

func (f *fakeListTemplatesUseCase) Execute(ctx context.Context, in app.ListImportTemplatesInput) ([]app.ImportTemplateOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

type fakeDeleteTemplateUseCase struct {
	err error
	got string
}

func (f *fakeDeleteTemplateUseCase) Execute(ctx context.Context, in app.DeleteImportTemplateInput) error {
	f.got = in.ID
	return f.err
}
