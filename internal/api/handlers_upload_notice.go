// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/photobeam/internal/logging"
	"github.com/tomtom215/photobeam/internal/metrics"
	"github.com/tomtom215/photobeam/internal/models"
	"github.com/tomtom215/photobeam/internal/validation"
	"github.com/tomtom215/photobeam/internal/websocket"
)

// maxNoticeBodyBytes bounds the upload-notice request body.
const maxNoticeBodyBytes = 1 << 20

// UploadNoticeAccepted is the body of a 202 response.
type UploadNoticeAccepted struct {
	ID        string `json:"id"`
	Images    int    `json:"images"`
	Transport string `json:"transport"`
}

// UploadNotice accepts an upload-completion notice from a collaborator and
// hands it to the notifier. The images are broadcast verbatim and in order.
func (h *Handler) UploadNotice(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	log := logging.Ctx(r.Context())

	var notice models.UploadNotice
	r.Body = http.MaxBytesReader(w, r.Body, maxNoticeBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&notice); err != nil {
		metrics.RecordUploadNotice(models.NoticeSourceHTTP, metrics.NoticeInvalid, 0)
		log.Debug().Err(err).Msg("Upload notice body is not valid JSON")
		rw.BadRequest("Request body must be a JSON upload notice")
		return
	}

	if verr := validation.ValidateStruct(&notice); verr != nil {
		metrics.RecordUploadNotice(models.NoticeSourceHTTP, metrics.NoticeInvalid, 0)
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	notice.Source = ""
	notice.Stamp(models.NoticeSourceHTTP)

	if err := h.notifier.NotifyUpload(r.Context(), &notice); err != nil {
		if errors.Is(err, websocket.ErrBroadcastQueueFull) {
			metrics.RecordUploadNotice(models.NoticeSourceHTTP, metrics.NoticeQueueFull, len(notice.Images))
			log.Warn().Str("notice_id", notice.ID).Msg("Upload notice rejected, broadcast queue full")
			rw.ServiceUnavailable("Broadcast queue is full, retry later")
			return
		}
		log.Error().Err(err).Str("notice_id", notice.ID).Str("transport", h.transport).Msg("Upload notice not delivered")
		rw.ServiceUnavailable("Upload notice could not be delivered")
		return
	}

	metrics.RecordUploadNotice(models.NoticeSourceHTTP, metrics.NoticeAccepted, len(notice.Images))
	log.Info().
		Str("notice_id", notice.ID).
		Int("images", len(notice.Images)).
		Str("transport", h.transport).
		Msg("Upload notice accepted")

	rw.Accepted(UploadNoticeAccepted{
		ID:        notice.ID,
		Images:    len(notice.Images),
		Transport: h.transport,
	})
}
