// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reportui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/fieldreport/lib/attachment"
	"github.com/bureau-foundation/fieldreport/lib/dispatch"
	"github.com/bureau-foundation/fieldreport/lib/navigation"
	"github.com/bureau-foundation/fieldreport/lib/schema"
	"github.com/bureau-foundation/fieldreport/lib/submission"
)

// Occurrence form fields, in display order.
const (
	fieldTitle = iota
	fieldRegion
	fieldTime
	fieldOriginNumber
	fieldOriginCarrier
	fieldDestNumber
	fieldDestCarrier
	fieldCallStatus
	fieldNotes
	fieldAttachment

	firstRecordField = fieldTime
	endRecordFields  = fieldAttachment
)

var occurrenceLabels = []string{
	"Title", "Region",
	"Time", "Origin number", "Origin carrier",
	"Destination number", "Destination carrier", "Call status", "Notes",
	"Attach file",
}

// occurrenceScreen is the state of the occurrence form. It exists only
// while the occurrence screen is shown.
type occurrenceScreen struct {
	draft  *submission.Draft
	fields *form

	// selected is the record list cursor, or -1 when the list is empty.
	selected int

	submitting bool
	attaching  bool
}

func newOccurrenceScreen() *occurrenceScreen {
	return &occurrenceScreen{
		draft: submission.NewDraft(),
		fields: newForm(occurrenceLabels, map[string]string{
			"Time":        "HH:MM",
			"Notes":       "optional",
			"Attach file": "path, then C-t",
		}),
		selected: -1,
	}
}

// record reads the record fields.
func (screen *occurrenceScreen) record() schema.TestRecord {
	fields := screen.fields
	return schema.TestRecord{
		Time:          fields.value(fieldTime),
		OriginNumber:  fields.value(fieldOriginNumber),
		OriginCarrier: fields.value(fieldOriginCarrier),
		DestNumber:    fields.value(fieldDestNumber),
		DestCarrier:   fields.value(fieldDestCarrier),
		CallStatus:    fields.value(fieldCallStatus),
		Notes:         fields.value(fieldNotes),
	}
}

func (screen *occurrenceScreen) fill(record schema.TestRecord) {
	fields := screen.fields
	fields.set(fieldTime, record.Time)
	fields.set(fieldOriginNumber, record.OriginNumber)
	fields.set(fieldOriginCarrier, record.OriginCarrier)
	fields.set(fieldDestNumber, record.DestNumber)
	fields.set(fieldDestCarrier, record.DestCarrier)
	fields.set(fieldCallStatus, record.CallStatus)
	fields.set(fieldNotes, record.Notes)
}

// snapshot copies the header fields into the draft and freezes it.
func (screen *occurrenceScreen) snapshot() submission.Snapshot {
	screen.draft.Title = screen.fields.value(fieldTitle)
	screen.draft.Region = screen.fields.value(fieldRegion)
	return screen.draft.Snapshot()
}

// commitRecord validates the record fields and commits them into the
// editing slot, or appends when nothing is being edited.
func (screen *occurrenceScreen) commitRecord() error {
	record := screen.record()
	if err := record.Validate(); err != nil {
		return err
	}
	slot, editing := screen.draft.Records.Editing()
	length := screen.draft.Records.Commit(record)
	if editing {
		screen.selected = slot
	} else {
		screen.selected = length - 1
	}
	screen.fields.clear(firstRecordField, endRecordFields)
	screen.fields.setFocus(firstRecordField)
	return nil
}

func (screen *occurrenceScreen) editSelected() error {
	if screen.selected < 0 {
		return errors.New("no record selected")
	}
	record, err := screen.draft.Records.BeginEdit(screen.selected)
	if err != nil {
		return err
	}
	screen.fill(record)
	screen.fields.setFocus(firstRecordField)
	return nil
}

func (screen *occurrenceScreen) removeSelected() error {
	if screen.selected < 0 {
		return errors.New("no record selected")
	}
	if err := screen.draft.Records.Remove(screen.selected); err != nil {
		return err
	}
	if _, editing := screen.draft.Records.Editing(); !editing {
		screen.fields.clear(firstRecordField, endRecordFields)
	}
	screen.clampSelection()
	return nil
}

func (screen *occurrenceScreen) moveSelection(delta int) {
	screen.selected += delta
	screen.clampSelection()
}

func (screen *occurrenceScreen) clampSelection() {
	count := screen.draft.Records.Len()
	switch {
	case count == 0:
		screen.selected = -1
	case screen.selected >= count:
		screen.selected = count - 1
	case screen.selected < 0:
		screen.selected = 0
	}
}

func (model *Model) handleOccurrenceKeys(message tea.KeyMsg) tea.Cmd {
	screen := model.occurrence
	if key.Matches(message, model.keys.Logout) {
		model.act(model.controller.Logout())
		return nil
	}
	if screen == nil || screen.submitting {
		return nil
	}
	switch {
	case key.Matches(message, model.keys.Back):
		if _, editing := screen.draft.Records.Editing(); editing {
			screen.draft.Records.CancelEdit()
			screen.fields.clear(firstRecordField, endRecordFields)
			return nil
		}
		model.act(model.controller.Navigate(navigation.ScreenHome))
	case key.Matches(message, model.keys.Submit):
		model.submit()
	case key.Matches(message, model.keys.CommitRecord):
		model.act(screen.commitRecord())
	case key.Matches(message, model.keys.EditRecord):
		model.act(screen.editSelected())
	case key.Matches(message, model.keys.RemoveRecord):
		model.act(screen.removeSelected())
	case key.Matches(message, model.keys.NextRecord):
		screen.moveSelection(1)
	case key.Matches(message, model.keys.PrevRecord):
		screen.moveSelection(-1)
	case key.Matches(message, model.keys.Attach):
		model.attach()
	case key.Matches(message, model.keys.NextField), message.Type == tea.KeyEnter:
		screen.fields.next()
	case key.Matches(message, model.keys.PrevField):
		screen.fields.previous()
	default:
		return screen.fields.update(message)
	}
	return nil
}

// submit validates on the UI goroutine and sends only a valid
// snapshot to the background.
func (model *Model) submit() {
	screen := model.occurrence
	snapshot := screen.snapshot()
	author := model.controller.Profile()
	if err := model.submitter.Validate(snapshot, author); err != nil {
		model.act(err)
		return
	}
	model.act(nil)
	screen.submitting = true
	token := model.submissions.Begin()
	dispatch.Run(model.dispatcher, "submit occurrence",
		func(ctx context.Context) (schema.SubmissionResult, error) {
			return model.submitter.Submit(ctx, snapshot, author)
		},
		func(result dispatch.Result[schema.SubmissionResult]) {
			if !model.submissions.Current(token) || model.occurrence != screen {
				model.logger.Info("submission finished after its screen closed",
					"remote_id", result.Value.RemoteID, "error", result.Err)
				return
			}
			if result.Err != nil {
				screen.submitting = false
				failed := submission.ResultFor(result.Err)
				model.act(result.Err)
				if failed.RemoteID != "" {
					model.logger.Error("occurrence partially written",
						"occurrence_id", failed.RemoteID, "error", result.Err)
				}
				return
			}
			outcome := result.Value
			model.logger.Info("occurrence submitted", "occurrence_id", outcome.RemoteID)

			// The submitted draft is gone whatever the navigation below
			// does. If the profile lookup fails and the controller
			// returns to the occurrence screen, sync opens a fresh draft.
			model.occurrence = nil
			model.submissions.Invalidate()
			model.result = &outcome
			err := model.controller.Navigate(navigation.ScreenHome)
			model.act(err)
			if err != nil {
				model.occurrence = newOccurrenceScreen()
			}
		})
}

// attach hashes the named file in the background and adds it to the
// draft on completion.
func (model *Model) attach() {
	screen := model.occurrence
	path := screen.fields.value(fieldAttachment)
	if path == "" {
		model.act(errors.New("enter a file path to attach"))
		return
	}
	if screen.attaching {
		return
	}
	screen.attaching = true
	dispatch.Run(model.dispatcher, "describe attachment",
		func(context.Context) (schema.Attachment, error) {
			return attachment.Describe(path)
		},
		func(result dispatch.Result[schema.Attachment]) {
			screen.attaching = false
			if model.occurrence != screen {
				return
			}
			if result.Err != nil {
				model.act(fmt.Errorf("attaching %s: %w", path, result.Err))
				return
			}
			if err := screen.draft.Attach(result.Value); err != nil {
				model.act(err)
				return
			}
			model.act(nil)
			screen.fields.clear(fieldAttachment, fieldAttachment+1)
		})
}
