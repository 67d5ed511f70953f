// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package recordlist

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrIndexOutOfRange is returned for a position outside [0, Len()).
	ErrIndexOutOfRange = errors.New("record index out of range")

	// ErrUnknownID is returned for an id that names no entry.
	ErrUnknownID = errors.New("unknown record id")
)

// Entry is a record together with its stable id.
type Entry[T any] struct {
	ID    string
	Value T
}

// Editor is an ordered list of T with an optional editing slot.
type Editor[T any] struct {
	entries []Entry[T]
	editing string
	newID   func() string
}

// New returns an empty editor.
func New[T any]() *Editor[T] {
	return &Editor[T]{newID: uuid.NewString}
}

// Len returns the number of entries.
func (editor *Editor[T]) Len() int {
	return len(editor.entries)
}

// Commit stores value. While an edit is in progress the edited entry
// is replaced in place, keeping its id, and the edit ends; otherwise
// value is appended under a new id. Returns the resulting length.
func (editor *Editor[T]) Commit(value T) int {
	if index := editor.indexOf(editor.editing); index >= 0 {
		editor.entries[index].Value = value
		editor.editing = ""
		return len(editor.entries)
	}
	editor.editing = ""
	editor.entries = append(editor.entries, Entry[T]{ID: editor.newID(), Value: value})
	return len(editor.entries)
}

// BeginEdit marks the entry at index as the editing target and
// returns its value for pre-filling a form.
func (editor *Editor[T]) BeginEdit(index int) (T, error) {
	if err := editor.checkIndex(index); err != nil {
		var zero T
		return zero, err
	}
	entry := editor.entries[index]
	editor.editing = entry.ID
	return entry.Value, nil
}

// BeginEditID is BeginEdit by id.
func (editor *Editor[T]) BeginEditID(id string) (T, error) {
	index := editor.indexOf(id)
	if index < 0 {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrUnknownID, id)
	}
	return editor.BeginEdit(index)
}

// CancelEdit ends any edit in progress without changing the list.
func (editor *Editor[T]) CancelEdit() {
	editor.editing = ""
}

// Editing returns the position of the entry being edited.
func (editor *Editor[T]) Editing() (int, bool) {
	index := editor.indexOf(editor.editing)
	return index, index >= 0
}

// EditingID returns the id of the entry being edited, or "".
func (editor *Editor[T]) EditingID() string {
	if editor.indexOf(editor.editing) < 0 {
		return ""
	}
	return editor.editing
}

// Remove deletes the entry at index. Removing the entry being edited
// ends the edit; removing an earlier entry shifts the editing
// position down with the list.
func (editor *Editor[T]) Remove(index int) error {
	if err := editor.checkIndex(index); err != nil {
		return err
	}
	if editor.entries[index].ID == editor.editing {
		editor.editing = ""
	}
	editor.entries = append(editor.entries[:index], editor.entries[index+1:]...)
	return nil
}

// RemoveID is Remove by id.
func (editor *Editor[T]) RemoveID(id string) error {
	index := editor.indexOf(id)
	if index < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownID, id)
	}
	return editor.Remove(index)
}

// IndexOf returns the position of the entry with id, or -1.
func (editor *Editor[T]) IndexOf(id string) int {
	return editor.indexOf(id)
}

// Reset empties the list and ends any edit.
func (editor *Editor[T]) Reset() {
	editor.entries = nil
	editor.editing = ""
}

// Values returns a copy of the values in order.
func (editor *Editor[T]) Values() []T {
	values := make([]T, len(editor.entries))
	for index, entry := range editor.entries {
		values[index] = entry.Value
	}
	return values
}

// Entries returns a copy of the entries in order.
func (editor *Editor[T]) Entries() []Entry[T] {
	return append([]Entry[T](nil), editor.entries...)
}

func (editor *Editor[T]) checkIndex(index int) error {
	if index < 0 || index >= len(editor.entries) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(editor.entries))
	}
	return nil
}

func (editor *Editor[T]) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for index, entry := range editor.entries {
		if entry.ID == id {
			return index
		}
	}
	return -1
}
