// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package models

import (
	"bytes"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Upload notice sources, used as a metrics label and for log context.
const (
	NoticeSourceHTTP = "http"
	NoticeSourceNATS = "nats"
)

// ImageDescriptor describes one image the upload pipeline finished storing.
// The field names match the object-storage upload result the web client
// already consumes, so descriptors are forwarded to sockets unchanged.
// Only secure_url is required; an image stored at the bucket root has an
// empty asset_folder. Fields beyond the three named ones are kept in Extra
// and written back out after them.
//
// Example:
//
//	{
//	  "secure_url": "https://res.cloudinary.com/demo/image/upload/v1/team-7/beach.jpg",
//	  "asset_folder": "team-7",
//	  "display_name": "beach",
//	  "width": 1024
//	}
type ImageDescriptor struct {
	SecureURL   string `json:"secure_url" validate:"required,httpurl"`
	AssetFolder string `json:"asset_folder"`
	DisplayName string `json:"display_name"`

	Extra map[string]json.RawMessage `json:"-"`
}

// imageFields is ImageDescriptor without the custom codec.
type imageFields struct {
	SecureURL   string `json:"secure_url"`
	AssetFolder string `json:"asset_folder"`
	DisplayName string `json:"display_name"`
}

// UnmarshalJSON decodes the named fields and keeps the rest in Extra.
func (d *ImageDescriptor) UnmarshalJSON(data []byte) error {
	var known imageFields
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	delete(all, "secure_url")
	delete(all, "asset_folder")
	delete(all, "display_name")

	*d = ImageDescriptor{
		SecureURL:   known.SecureURL,
		AssetFolder: known.AssetFolder,
		DisplayName: known.DisplayName,
	}
	if len(all) > 0 {
		d.Extra = all
	}
	return nil
}

// MarshalJSON writes the named fields first, then Extra in key order.
func (d ImageDescriptor) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(imageFields{
		SecureURL:   d.SecureURL,
		AssetFolder: d.AssetFolder,
		DisplayName: d.DisplayName,
	})
	if err != nil || len(d.Extra) == 0 {
		return known, err
	}

	keys := make([]string, 0, len(d.Extra))
	for k := range d.Extra {
		switch k {
		case "secure_url", "asset_folder", "display_name":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(known[:len(known)-1])
	for _, k := range keys {
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		if raw := d.Extra[k]; len(raw) > 0 {
			buf.Write(raw)
		} else {
			buf.WriteString("null")
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UploadNotice is an upload-completion notice from a trusted collaborator.
//
// Images is ordered; the order is preserved through the bus and into the
// process-status event. ID, PublishedAt and Source are filled in by the
// gateway when the collaborator leaves them empty.
type UploadNotice struct {
	ID          string            `json:"id,omitempty"`
	Images      []ImageDescriptor `json:"images" validate:"required,min=1,dive"`
	PublishedAt time.Time         `json:"published_at,omitempty"`
	Source      string            `json:"source,omitempty"`
}

// NewUploadNotice builds a notice with a fresh ID and timestamp.
func NewUploadNotice(images []ImageDescriptor, source string) *UploadNotice {
	n := &UploadNotice{Images: images, Source: source}
	n.Stamp(source)
	return n
}

// Stamp fills in ID, PublishedAt and Source where they are empty.
func (n *UploadNotice) Stamp(source string) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.PublishedAt.IsZero() {
		n.PublishedAt = time.Now().UTC()
	}
	if n.Source == "" {
		n.Source = source
	}
}
