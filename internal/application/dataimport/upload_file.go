package dataimport

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const DefaultMaxUploadBytes int64 = 10 << 20

var allowedSpreadsheetTypes = map[string]bool{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/vnd.ms-excel.sheet.macroenabled.12":                   true,
}

type UploadImportFileInput struct {
	Data        []byte
	FileName    string
	ContentType string
}

type UploadImportFileOutput struct {
	FileURL  string   `json:"file_url"`
	FileName string   `json:"file_name"`
	Headers  []string `json:"headers"`
}

type UploadImportFile interface {
	Execute(ctx context.Context, in UploadImportFileInput) (UploadImportFileOutput, error)
}

type uploadImportFile struct {
	storage  FileStorage
	reader   SpreadsheetReader
	maxBytes int64
}

func NewUploadImportFile(storage FileStorage, reader SpreadsheetReader, maxBytes int64) UploadImportFile {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &uploadImportFile{storage: storage, reader: reader, maxBytes: maxBytes}
}

// Execute rejects oversized or non-spreadsheet files before anything is
// stored, then returns the stored URL together with the header labels.
func (uc *uploadImportFile) Execute(ctx context.Context, in UploadImportFileInput) (UploadImportFileOutput, error) {
	if int64(len(in.Data)) > uc.maxBytes {
		return UploadImportFileOutput{}, fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, len(in.Data), uc.maxBytes)
	}
	if len(in.Data) == 0 {
		return UploadImportFileOutput{}, fmt.Errorf("%w: file is empty", ErrInvalidSpreadsheet)
	}

	contentType := normalizeContentType(in.ContentType)
	if !allowedSpreadsheetTypes[contentType] {
		return UploadImportFileOutput{}, fmt.Errorf("%w: %q", ErrUnsupportedFileType, in.ContentType)
	}
	if detected := mimetype.Detect(in.Data); !isZipContainer(detected) {
		return UploadImportFileOutput{}, fmt.Errorf("%w: content is %s", ErrUnsupportedFileType, detected.String())
	}

	headers, err := ParseHeaders(uc.reader, in.Data)
	if err != nil {
		return UploadImportFileOutput{}, err
	}

	fileName := filepath.Base(strings.TrimSpace(in.FileName))
	if fileName == "." || fileName == string(filepath.Separator) {
		fileName = "import.xlsx"
	}

	url, err := uc.storage.Store(ctx, in.Data, contentType, fileName)
	if err != nil {
		return UploadImportFileOutput{}, fmt.Errorf("%w: %v", ErrStoreFile, err)
	}

	return UploadImportFileOutput{
		FileURL:  url,
		FileName: fileName,
		Headers:  headers,
	}, nil
}

// ParseHeaders returns the trimmed first-row labels of the first sheet.
func ParseHeaders(reader SpreadsheetReader, data []byte) ([]string, error) {
	sheet, err := reader.ReadFirstSheet(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpreadsheet, err)
	}
	if len(sheet.Headers) == 0 {
		return nil, fmt.Errorf("%w: sheet %q has no header row", ErrInvalidSpreadsheet, sheet.Name)
	}
	return sheet.Headers, nil
}

func normalizeContentType(raw string) string {
	if i := strings.IndexByte(raw, ';'); i >= 0 {
		raw = raw[:i]
	}
	return strings.ToLower(strings.TrimSpace(raw))
}

func isZipContainer(detected *mimetype.MIME) bool {
	for m := detected; m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return true
		}
	}
	return false
}
