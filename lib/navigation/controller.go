// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bureau-foundation/fieldreport/lib/access"
	"github.com/bureau-foundation/fieldreport/lib/auth"
	"github.com/bureau-foundation/fieldreport/lib/dispatch"
	"github.com/bureau-foundation/fieldreport/lib/failure"
	"github.com/bureau-foundation/fieldreport/lib/schema"
)

var (
	// ErrNotAllowed is returned for an operation the current state
	// does not offer.
	ErrNotAllowed = errors.New("not allowed in the current state")

	// ErrBusy is returned while an access request is being sent.
	ErrBusy = errors.New("an access request is already being sent")
)

// Directory is the part of the access resolver the controller uses.
type Directory interface {
	ResolveProfile(ctx context.Context, email string) (schema.UserProfile, error)
	SubmitAccessRequest(ctx context.Context, request schema.AccessRequest) (string, error)
}

// SessionContext is everything a controller acts on. Tests build one
// per case; nothing is global.
type SessionContext struct {
	Session    *auth.Session
	Directory  Directory
	Dispatcher *dispatch.Dispatcher
	Logger     *slog.Logger
}

// Controller is the navigation state machine.
type Controller struct {
	session    *auth.Session
	directory  Directory
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger

	flows     dispatch.Flows
	view      View
	profile   schema.UserProfile
	lastErr   error
	notice    string
	requested bool

	// cancelLogin ends the pending interactive login, or is nil.
	cancelLogin context.CancelFunc

	listeners []func(Transition)
}

// New returns a controller in the Unauthenticated state.
func New(sc SessionContext) *Controller {
	logger := sc.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		session:    sc.Session,
		directory:  sc.Directory,
		dispatcher: sc.Dispatcher,
		logger:     logger,
		view:       View{State: Unauthenticated},
	}
}

// OnChange registers fn to be called after every transition.
func (controller *Controller) OnChange(fn func(Transition)) {
	controller.listeners = append(controller.listeners, fn)
}

// View returns the current view.
func (controller *Controller) View() View { return controller.view }

// State returns the current state.
func (controller *Controller) State() State { return controller.view.State }

// Profile returns the directory entry from the most recent
// resolution. It is meaningful in Unregistered, Pending and Approved.
func (controller *Controller) Profile() schema.UserProfile { return controller.profile }

// LastError returns the failure that caused the most recent fallback,
// or nil. Any successful transition clears it.
func (controller *Controller) LastError() error { return controller.lastErr }

// Notice returns the message from the last access request.
func (controller *Controller) Notice() string { return controller.notice }

// CanLogin reports whether the login trigger should be enabled.
func (controller *Controller) CanLogin() bool {
	return controller.view.State == Unauthenticated && !controller.session.LoginInFlight()
}

// RequestInFlight reports whether an access request is being sent.
func (controller *Controller) RequestInFlight() bool { return controller.requested }

func (controller *Controller) moveTo(next View) {
	previous := controller.view
	if previous == next {
		return
	}
	controller.view = next
	controller.logger.Debug("navigation", "from", previous.String(), "to", next.String())
	for _, listener := range controller.listeners {
		listener(Transition{From: previous, To: next})
	}
}

func (controller *Controller) notAllowed(operation string) error {
	return fmt.Errorf("%s: %w (state %s)", operation, ErrNotAllowed, controller.view)
}

// Start restores the cached session in the background. A usable
// credential continues straight into profile resolution; anything else
// leaves the controller Unauthenticated.
func (controller *Controller) Start() error {
	if controller.view.State != Unauthenticated {
		return controller.notAllowed("start")
	}
	token := controller.flows.Begin()
	dispatch.Run(controller.dispatcher, "restore session",
		func(ctx context.Context) (auth.Outcome, error) {
			return controller.session.Restore(ctx), nil
		},
		func(result dispatch.Result[auth.Outcome]) {
			if !controller.flows.Current(token) {
				return
			}
			if result.Err != nil {
				controller.fail(token, View{State: Unauthenticated}, failure.Auth("restoring session: %w", result.Err))
				return
			}
			outcome := result.Value
			if err := controller.session.Apply(outcome); err != nil {
				controller.logger.Warn("applying restored session", "error", err)
			}
			if outcome.Credential == nil {
				controller.lastErr = outcome.Err
				controller.moveTo(View{State: Unauthenticated})
				return
			}
			controller.resolve(token, View{State: Unauthenticated}, ScreenHome)
		})
	return nil
}

// Login starts an interactive login. It fails immediately with
// auth.ErrLoginInFlight while another login is pending. Logout
// cancels it.
func (controller *Controller) Login() error {
	if controller.view.State != Unauthenticated {
		return controller.notAllowed("login")
	}
	if err := controller.session.BeginLogin(); err != nil {
		return err
	}
	token := controller.flows.Begin()
	loginCtx, cancel := context.WithCancel(controller.dispatcher.Context())
	controller.cancelLogin = cancel
	controller.lastErr = nil
	controller.moveTo(View{State: Authenticating})
	dispatch.Run(controller.dispatcher, "login",
		func(context.Context) (auth.Outcome, error) {
			return controller.session.Authorize(loginCtx), nil
		},
		func(result dispatch.Result[auth.Outcome]) {
			cancel()
			outcome := result.Value
			if !controller.flows.Current(token) {
				controller.session.Discard(outcome)
				controller.logger.Debug("discarding stale login result")
				return
			}
			if result.Err != nil {
				controller.cancelLogin = nil
				controller.session.Discard(outcome)
				controller.fail(token, View{State: Unauthenticated}, failure.Auth("login: %w", result.Err))
				return
			}
			controller.cancelLogin = nil
			if err := controller.session.Apply(outcome); err != nil {
				controller.logger.Warn("applying login", "error", err)
			}
			if outcome.Credential == nil {
				controller.fail(token, View{State: Unauthenticated}, outcome.Err)
				return
			}
			controller.resolve(token, View{State: Unauthenticated}, ScreenHome)
		})
	return nil
}

// Recheck resolves the profile again from Pending, Unregistered or
// Approved. On failure the controller returns to where it was.
func (controller *Controller) Recheck() error {
	switch controller.view.State {
	case Pending, Unregistered, Approved:
	default:
		return controller.notAllowed("recheck")
	}
	origin := controller.view
	token := controller.flows.Begin()
	controller.resolve(token, origin, origin.Screen)
	return nil
}

// Navigate moves to screen inside Approved. The profile is resolved
// again first; the user lands on screen only if the fresh profile
// still allows it, and on Home otherwise.
func (controller *Controller) Navigate(screen Screen) error {
	if controller.view.State != Approved {
		return controller.notAllowed("navigate")
	}
	if !screen.Allows(controller.view.Role) {
		return fmt.Errorf("%s screen: %w for role %s", screen, ErrNotAllowed, controller.view.Role)
	}
	token := controller.flows.Begin()
	controller.resolve(token, controller.view, screen)
	return nil
}

// SubmitAccessRequest sends request for the signed-in account. The
// email is always the session identity. Validation failures are
// returned synchronously and nothing is sent.
func (controller *Controller) SubmitAccessRequest(request schema.AccessRequest) error {
	if controller.view.State != Unregistered {
		return controller.notAllowed("access request")
	}
	if controller.requested {
		return ErrBusy
	}
	request.Email = controller.session.Identity()
	if err := access.ValidateRequest(request); err != nil {
		return err
	}
	controller.requested = true
	token := controller.flows.Begin()
	dispatch.Run(controller.dispatcher, "access request",
		func(ctx context.Context) (string, error) {
			return controller.directory.SubmitAccessRequest(ctx, request)
		},
		func(result dispatch.Result[string]) {
			if !controller.flows.Current(token) {
				return
			}
			controller.requested = false
			if result.Err != nil {
				controller.lastErr = result.Err
				controller.logger.Warn("access request failed", "error", result.Err)
				return
			}
			controller.lastErr = nil
			controller.notice = result.Value
			request.Status = schema.StatusPending
			controller.profile = request.Profile()
			controller.moveTo(View{State: Pending})
		})
	return nil
}

// Logout ends the session from any state. Every outstanding flow
// becomes stale and a pending interactive login is cancelled; login is
// enabled again once its completion has run.
func (controller *Controller) Logout() error {
	controller.flows.Invalidate()
	if controller.cancelLogin != nil {
		controller.cancelLogin()
		controller.cancelLogin = nil
	}
	controller.requested = false
	controller.profile = schema.UserProfile{}
	controller.notice = ""
	controller.lastErr = nil
	err := controller.session.Logout()
	controller.moveTo(View{State: Unauthenticated})
	return err
}

// resolve runs the resolution chain: restore when the credential has
// expired, identity lookup when the identity is unknown, then the
// profile. Each stage is scheduled from the previous stage's
// completion. origin is where a failure returns to.
func (controller *Controller) resolve(token dispatch.Token, origin View, screen Screen) {
	controller.moveTo(View{State: ResolvingProfile})
	snapshot := controller.session.Snapshot()
	switch snapshot.State {
	case auth.Valid:
		controller.resolveIdentity(token, origin, screen, snapshot)
	case auth.Expired:
		dispatch.Run(controller.dispatcher, "refresh session",
			func(ctx context.Context) (auth.Outcome, error) {
				return controller.session.Restore(ctx), nil
			},
			func(result dispatch.Result[auth.Outcome]) {
				if !controller.flows.Current(token) {
					return
				}
				if result.Err != nil {
					controller.fail(token, origin, failure.TokenExpired("refreshing session: %w", result.Err))
					return
				}
				if err := controller.session.Apply(result.Value); err != nil {
					controller.logger.Warn("applying refreshed session", "error", err)
				}
				refreshed := controller.session.Snapshot()
				if refreshed.State != auth.Valid {
					err := result.Value.Err
					if err == nil {
						err = failure.TokenExpired("session expired")
					}
					controller.fail(token, origin, err)
					return
				}
				controller.resolveIdentity(token, origin, screen, refreshed)
			})
	default:
		controller.fail(token, View{State: Unauthenticated}, auth.ErrNoSession)
	}
}

func (controller *Controller) resolveIdentity(token dispatch.Token, origin View, screen Screen, snapshot auth.Snapshot) {
	if snapshot.Identity != "" {
		controller.resolveProfile(token, origin, screen, snapshot.Identity)
		return
	}
	held := *snapshot.Credential
	dispatch.Run(controller.dispatcher, "identity lookup",
		func(ctx context.Context) (string, error) {
			return controller.session.LookupIdentity(ctx, held)
		},
		func(result dispatch.Result[string]) {
			if !controller.flows.Current(token) {
				return
			}
			if result.Err != nil {
				controller.fail(token, origin, result.Err)
				return
			}
			controller.session.SetIdentity(result.Value)
			controller.resolveProfile(token, origin, screen, result.Value)
		})
}

func (controller *Controller) resolveProfile(token dispatch.Token, origin View, screen Screen, email string) {
	dispatch.Run(controller.dispatcher, "profile lookup",
		func(ctx context.Context) (schema.UserProfile, error) {
			return controller.directory.ResolveProfile(ctx, email)
		},
		func(result dispatch.Result[schema.UserProfile]) {
			if !controller.flows.Current(token) {
				return
			}
			if result.Err != nil {
				controller.fail(token, origin, result.Err)
				return
			}
			controller.enter(result.Value, screen)
		})
}

// enter moves to the state a freshly resolved profile calls for.
func (controller *Controller) enter(profile schema.UserProfile, screen Screen) {
	controller.profile = profile
	controller.lastErr = nil
	switch profile.Status {
	case schema.StatusApproved:
		if !screen.Allows(profile.Role) {
			screen = ScreenHome
		}
		controller.moveTo(View{State: Approved, Role: profile.Role, Screen: screen})
	case schema.StatusPending, schema.StatusUnknown:
		controller.moveTo(View{State: Pending})
	default:
		controller.moveTo(View{State: Unregistered})
	}
	controller.logger.Info("profile resolved",
		"email", profile.Email,
		"role", profile.Role,
		"status", profile.Status,
		"state", controller.view.String(),
	)
}

// fail records err and falls back. Authentication failures and flows
// that began signed out go to Unauthenticated; a re-check returns to
// the view it started from.
func (controller *Controller) fail(token dispatch.Token, origin View, err error) {
	controller.lastErr = err
	controller.logger.Warn("navigation flow failed",
		"flow", uint64(token),
		"return_to", origin.String(),
		"error", err,
	)
	if failure.IsAuth(err) || errors.Is(err, auth.ErrNoSession) || origin.State == Unauthenticated {
		controller.moveTo(View{State: Unauthenticated})
		return
	}
	controller.moveTo(origin)
}

// Message returns the user-facing text for the last error, or "".
func (controller *Controller) Message() string {
	if controller.lastErr == nil {
		return ""
	}
	if errors.Is(controller.lastErr, auth.ErrNoSession) {
		return "You are not signed in."
	}
	return strings.TrimSpace(failure.UserMessage(controller.lastErr))
}
