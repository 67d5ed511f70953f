// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package submission

import (
	"fmt"
	"slices"

	"github.com/bureau-foundation/fieldreport/lib/attachment"
	"github.com/bureau-foundation/fieldreport/lib/recordlist"
	"github.com/bureau-foundation/fieldreport/lib/schema"
)

// Snapshot is a draft frozen for submission.
type Snapshot struct {
	Title       string              `yaml:"title"`
	Region      string              `yaml:"region,omitempty"`
	Records     []schema.TestRecord `yaml:"tests"`
	Attachments []schema.Attachment `yaml:"-"`
}

// Draft is an occurrence being composed. It is owned by one screen and
// is not safe for concurrent use.
type Draft struct {
	Title   string
	Region  string
	Records *recordlist.Editor[schema.TestRecord]

	attachments []schema.Attachment
}

// NewDraft returns an empty draft.
func NewDraft() *Draft {
	return &Draft{Records: recordlist.New[schema.TestRecord]()}
}

// Snapshot copies the draft.
func (draft *Draft) Snapshot() Snapshot {
	return Snapshot{
		Title:       draft.Title,
		Region:      draft.Region,
		Records:     draft.Records.Values(),
		Attachments: slices.Clone(draft.attachments),
	}
}

// Attachments returns the attached files in order.
func (draft *Draft) Attachments() []schema.Attachment {
	return slices.Clone(draft.attachments)
}

// AddAttachment hashes the file at path and attaches it. Attaching
// identical content twice is an error.
func (draft *Draft) AddAttachment(path string) (schema.Attachment, error) {
	attached, err := attachment.Describe(path)
	if err != nil {
		return schema.Attachment{}, err
	}
	if err := draft.Attach(attached); err != nil {
		return schema.Attachment{}, err
	}
	return attached, nil
}

// Attach adds an already described attachment. Hashing reads the
// whole file, so interactive callers describe off the UI goroutine and
// attach on it.
func (draft *Draft) Attach(attached schema.Attachment) error {
	for _, existing := range draft.attachments {
		if existing.Digest == attached.Digest {
			return fmt.Errorf("%s has the same content as %s", attached.Name, existing.Name)
		}
	}
	draft.attachments = append(draft.attachments, attached)
	return nil
}

// RemoveAttachment detaches the file at index.
func (draft *Draft) RemoveAttachment(index int) error {
	if index < 0 || index >= len(draft.attachments) {
		return fmt.Errorf("attachment %d: %w (have %d)", index, recordlist.ErrIndexOutOfRange, len(draft.attachments))
	}
	draft.attachments = slices.Delete(draft.attachments, index, index+1)
	return nil
}
