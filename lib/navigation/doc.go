// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package navigation decides which screen the user sees.
//
// A [Controller] is a state machine over the session lifecycle:
//
//	Unauthenticated --Login--> Authenticating
//	Authenticating --success--> ResolvingProfile
//	Authenticating --failure--> Unauthenticated
//	Authenticating --Logout--> Unauthenticated (login cancelled)
//	ResolvingProfile --approved--> Approved(role)
//	ResolvingProfile --pending--> Pending
//	ResolvingProfile --unregistered/rejected--> Unregistered
//	Pending, Unregistered, Approved --Recheck--> ResolvingProfile
//	Unregistered --SubmitAccessRequest--> Pending
//	any --Logout--> Unauthenticated
//
// Inside Approved the controller also tracks a [Screen]. Moving
// between screens re-resolves the profile first, so an administrator's
// edits to the directory apply at the user's next transition.
//
// Every background stage (session restore, login, identity lookup,
// profile lookup, access request) runs through a [dispatch.Dispatcher]
// and its completion runs on the goroutine draining the dispatcher.
// Each flow carries a [dispatch.Token]; a completion whose token is no
// longer current changes nothing. Controller methods must only be
// called from that draining goroutine.
package navigation
