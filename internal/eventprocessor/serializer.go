// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package eventprocessor

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/photobeam/internal/models"
	"github.com/tomtom215/photobeam/internal/validation"
)

// MarshalNotice validates a notice and encodes it for the bus.
func MarshalNotice(notice *models.UploadNotice) ([]byte, error) {
	if notice == nil {
		return nil, fmt.Errorf("%w: nil notice", ErrInvalidNotice)
	}
	if verr := validation.ValidateStruct(notice); verr != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidNotice, verr.Error())
	}

	data, err := json.Marshal(notice)
	if err != nil {
		return nil, fmt.Errorf("marshal notice: %w", err)
	}
	return data, nil
}

// UnmarshalNotice decodes and validates a bus payload. Image order is kept.
func UnmarshalNotice(data []byte) (*models.UploadNotice, error) {
	var notice models.UploadNotice
	if err := json.Unmarshal(data, &notice); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidNotice, err.Error())
	}
	if verr := validation.ValidateStruct(&notice); verr != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidNotice, verr.Error())
	}
	return &notice, nil
}
