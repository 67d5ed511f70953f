// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package submission

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// draftFile is the YAML form of a draft accepted by the submit
// command. Attachment paths are relative to the file.
type draftFile struct {
	Snapshot    `yaml:",inline"`
	Attachments []string `yaml:"attachments,omitempty"`
}

// LoadDraft reads a YAML draft from path into a Draft. Unknown keys
// are rejected so a misspelled field is not silently dropped.
func LoadDraft(path string) (*Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading draft: %w", err)
	}
	var file draftFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing draft %s: %w", path, err)
	}

	draft := NewDraft()
	draft.Title = file.Title
	draft.Region = file.Region
	for _, record := range file.Records {
		draft.Records.Commit(record)
	}
	base := filepath.Dir(path)
	for _, attached := range file.Attachments {
		if !filepath.IsAbs(attached) {
			attached = filepath.Join(base, attached)
		}
		if _, err := draft.AddAttachment(attached); err != nil {
			return nil, fmt.Errorf("draft %s: %w", path, err)
		}
	}
	return draft, nil
}
