package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"finsight/internal/core"
	"finsight/internal/ocr"
	"finsight/internal/session"
)

const (
	MsgReceiptProcessed = "Receipt processed successfully!"
	MsgNoItemsFound     = "No items found in the receipt. Please try again with a clearer image."
	MsgUnsupportedImage = "Please upload a JPG, JPEG or PNG image."
)

// Extractor turns a receipt image into unclassified items.
type Extractor interface {
	Extract(ctx context.Context, imagePath string) ([]core.Item, error)
}

// Classifier assigns category and want/need tags.
type Classifier interface {
	Classify(ctx context.Context, items []core.Item) ([]core.Item, error)
}

// Outcome reports what one upload did to the session. Notices are meant for
// the user; Items is empty when nothing was added.
type Outcome struct {
	BatchKey string
	Items    []core.Item
	Notices  []core.Notice
}

// Added reports whether a batch was appended.
func (o Outcome) Added() bool {
	return o.BatchKey != ""
}

// ReceiptService runs the upload pipeline: extract, classify, append.
type ReceiptService struct {
	extractor  Extractor
	classifier Classifier
	sessions   *session.Registry
	tempDir    string
	logger     *slog.Logger
	now        func() time.Time
}

func NewReceiptService(extractor Extractor, classifier Classifier, sessions *session.Registry, logger *slog.Logger) *ReceiptService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReceiptService{
		extractor:  extractor,
		classifier: classifier,
		sessions:   sessions,
		logger:     logger,
		now:        time.Now,
	}
}

// ProcessUpload stores the uploaded image in a temporary file, runs it
// through the pipeline and removes the file again, whatever the result.
// Collaborator failures are reported as notices, not errors; the error is
// reserved for session storage failures.
func (s *ReceiptService) ProcessUpload(ctx context.Context, sessionID, filename string, r io.Reader) (Outcome, error) {
	path, err := s.saveTemp(filename, r)
	if err != nil {
		if errors.Is(err, ocr.ErrUnsupportedImage) {
			return Outcome{Notices: []core.Notice{core.ErrorNotice(MsgUnsupportedImage)}}, nil
		}
		s.logger.ErrorContext(ctx, "Failed to store upload", "filename", filename, "error", err)
		return Outcome{Notices: []core.Notice{core.ErrorNotice("Error processing image: " + err.Error())}}, nil
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.WarnContext(ctx, "Failed to remove temp receipt", "path", path, "error", err)
		}
	}()

	return s.ProcessImage(ctx, sessionID, path)
}

// saveTemp writes r to a new temp file with the upload's extension. The
// first bytes must sniff as JPEG or PNG.
func (s *ReceiptService) saveTemp(filename string, r io.Reader) (string, error) {
	if !ocr.SupportedExtension(filename) {
		return "", ocr.ErrUnsupportedImage
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if ct := http.DetectContentType(head); ct != "image/jpeg" && ct != "image/png" {
		return "", fmt.Errorf("%w: detected %s", ocr.ErrUnsupportedImage, ct)
	}

	f, err := os.CreateTemp(s.tempDir, "receipt-*"+strings.ToLower(filepath.Ext(filename)))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(f, io.MultiReader(bytes.NewReader(head), r)); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return f.Name(), nil
}

// ProcessImage extracts and classifies the receipt at path and appends the
// result to the session as a new batch.
func (s *ReceiptService) ProcessImage(ctx context.Context, sessionID, path string) (Outcome, error) {
	var out Outcome

	items, err := s.extractor.Extract(ctx, path)
	switch {
	case errors.Is(err, ocr.ErrNoLineItems):
		out.Notices = append(out.Notices, core.ErrorNotice(MsgNoItemsFound))
		return out, nil
	case err != nil:
		out.Notices = append(out.Notices,
			core.ErrorNotice("Error processing receipt: "+err.Error()),
			core.ErrorNotice(MsgNoItemsFound))
		return out, nil
	}

	classified, err := s.classifier.Classify(ctx, items)
	if err != nil {
		// Classified holds the unclassified originals here; they are kept.
		out.Notices = append(out.Notices, core.WarningNotice("Error categorizing items: "+err.Error()))
	}

	now := s.now()
	key := session.ReceiptBatchKey(now)
	if _, err := s.sessions.Update(ctx, sessionID, func(sess *session.Session) error {
		sess.AppendBatch(key, classified, now)
		return nil
	}); err != nil {
		return out, fmt.Errorf("append batch: %w", err)
	}

	out.BatchKey = key
	out.Items = classified
	out.Notices = append(out.Notices, core.SuccessNotice(MsgReceiptProcessed))
	return out, nil
}
