package http

import (
	"errors"
	"net/http"
	"sync/atomic"

	"finsight/internal/core"
	"finsight/internal/log"
)

const receiptField = "receipt"

func (s *Server) handleUploadPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	view := buildUploadResult(sess, nil, "", nil)
	s.render(w, r, "upload_page", page{Title: "Upload Receipt", Active: "upload", View: view})
}

// handleUploadReceipt accepts one receipt image as multipart field "receipt"
// and runs the extract, classify and append pipeline on it. Pipeline problems
// come back as notices in the result fragment with status 200.
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx).WithComponent(log.ComponentReceipt)

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg := "The image is too large. Please upload a smaller photo."
			Fail(http.StatusRequestEntityTooLarge, msg).Write(w)
			return
		}
		Fail(http.StatusBadRequest, "Please choose a receipt image to upload").Write(w)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(receiptField)
	if err != nil {
		msg := "Please choose a receipt image to upload"
		Fail(http.StatusBadRequest, msg).Write(w)
		return
	}
	defer file.Close()

	logger.InfoContext(ctx, "Receipt upload received",
		log.FieldOperation, log.OpUpload,
		log.FieldFilename, header.Filename,
		"size_bytes", header.Size)

	out, err := s.receipts.ProcessUpload(ctx, sessionID(r), header.Filename, file)
	if err != nil {
		s.structured.LogError(ctx, "Receipt processing failed", err, log.ComponentReceipt, log.OpUpload,
			log.NewFields().WithSession(sessionID(r)).With(log.FieldFilename, header.Filename))
		ErrorFragment(http.StatusInternalServerError, "The receipt could not be saved. Please try again.").
			Notify(core.ErrorNotice("The receipt could not be saved")).
			Write(w)
		return
	}

	if out.Added() {
		atomic.AddInt64(&s.appMetrics.receiptsProcessed, 1)
		s.structured.LogBatchAdded(ctx, sessionID(r), out.BatchKey, len(out.Items), core.Sum(out.Items).StringFixed(2))
	} else {
		atomic.AddInt64(&s.appMetrics.receiptsEmpty, 1)
	}

	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	html, err := s.renderHTML(ctx, "upload_result", buildUploadResult(sess, out.Notices, out.BatchKey, out.Items))
	if err != nil {
		ErrorFragment(http.StatusInternalServerError, "Unable to render upload result").Write(w)
		return
	}

	resp := NewHTMXResponse().HTML(html)
	if n, ok := mostSevere(out.Notices); ok {
		resp.Notify(n)
	}
	if out.Added() {
		resp.TriggerItemsChanged(len(sess.Items()))
	}
	resp.Write(w)
}
