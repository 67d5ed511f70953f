// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reportui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/fieldreport/lib/schema"
)

// Access request form fields, in display order.
const (
	requestFullName = iota
	requestUsername
	requestRole
	requestCompany
)

var requestLabels = []string{"Full name", "Username", "Role", "Company"}

func newRequestForm() *form {
	return newForm(requestLabels, map[string]string{
		"Role":    string(schema.RolePartner) + " or " + string(schema.RoleMunicipalAgent),
		"Company": "required for partners",
	})
}

// accessRequest builds the request from the form. The email is filled
// in by the controller from the session identity.
func accessRequest(request *form) schema.AccessRequest {
	role := schema.Role(request.value(requestRole))
	if parsed, ok := schema.ParseRole(string(role)); ok {
		role = parsed
	}
	return schema.AccessRequest{
		FullName: request.value(requestFullName),
		Username: request.value(requestUsername),
		Role:     role,
		Company:  request.value(requestCompany),
	}
}

func (model *Model) handleRequestKeys(message tea.KeyMsg) tea.Cmd {
	request := model.request
	switch {
	case key.Matches(message, model.keys.Recheck):
		model.act(model.controller.Recheck())
	case key.Matches(message, model.keys.Logout):
		model.act(model.controller.Logout())
	case request == nil:
	case key.Matches(message, model.keys.Submit):
		model.act(model.controller.SubmitAccessRequest(accessRequest(request)))
	case message.Type == tea.KeyEnter && request.focus == len(request.fields)-1:
		model.act(model.controller.SubmitAccessRequest(accessRequest(request)))
	case key.Matches(message, model.keys.NextField), message.Type == tea.KeyEnter:
		request.next()
	case key.Matches(message, model.keys.PrevField):
		request.previous()
	default:
		if model.controller.RequestInFlight() {
			return nil
		}
		return request.update(message)
	}
	return nil
}
