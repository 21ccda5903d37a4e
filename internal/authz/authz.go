// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package authz decides whether a caller may perform an action. Every rule is
// a pure function of the caller and the resource; nothing here touches the
// database or the session.
package authz

import "context"

// Redirect targets used by denials.
const (
	SignInPath = "/signin"
	HomePath   = "/"
)

// Caller is the identity a request acts as. The zero value is anonymous.
type Caller struct {
	ID    int64
	Alias string
	Admin bool
}

// Anonymous is the caller of requests without a signed-in user.
var Anonymous = Caller{}

// SignedIn reports whether the caller is authenticated.
func (c Caller) SignedIn() bool {
	return c.ID != 0
}

// Is reports whether the caller is the user with the given id.
func (c Caller) Is(userID int64) bool {
	return c.SignedIn() && c.ID == userID
}

// Decision is the outcome of a rule. A denial names where the caller should
// be sent next.
type Decision struct {
	Allowed  bool
	Redirect string
	Reason   string
}

// Allow is the permitting decision.
var Allow = Decision{Allowed: true}

func deny(redirect, reason string) Decision {
	return Decision{Redirect: redirect, Reason: reason}
}

// Rule is a single authorization check.
type Rule func(Caller) Decision

// RequireSignedIn denies anonymous callers and sends them to the sign-in page.
func RequireSignedIn(c Caller) Decision {
	if !c.SignedIn() {
		return deny(SignInPath, "Please sign in to access this page.")
	}
	return Allow
}

// RequireAdmin denies callers without the admin flag.
func RequireAdmin(c Caller) Decision {
	if !c.Admin {
		return deny(HomePath, "Only administrators can do that.")
	}
	return Allow
}

// RequireOwner returns a rule that denies everyone but the owner of a resource.
func RequireOwner(ownerID int64) Rule {
	return func(c Caller) Decision {
		if !c.Is(ownerID) {
			return deny(HomePath, "You can only change your own records.")
		}
		return Allow
	}
}

// Check applies rules in order and returns the first denial.
func Check(c Caller, rules ...Rule) Decision {
	for _, rule := range rules {
		if d := rule(c); !d.Allowed {
			return d
		}
	}
	return Allow
}

// ConferenceCreate decides whether c may create a conference.
func ConferenceCreate(c Caller) Decision {
	return Check(c, RequireSignedIn, RequireAdmin)
}

// ConferenceWrite decides whether c may edit or destroy a conference owned by
// ownerID. Both ownership and the admin flag are required.
func ConferenceWrite(c Caller, ownerID int64) Decision {
	return Check(c, RequireSignedIn, RequireOwner(ownerID), RequireAdmin)
}

// ProfileWrite decides whether c may edit the profile of userID.
func ProfileWrite(c Caller, userID int64) Decision {
	return Check(c, RequireSignedIn, RequireOwner(userID))
}

// UserDestroy decides whether c may destroy users at all.
func UserDestroy(c Caller) Decision {
	return Check(c, RequireSignedIn, RequireAdmin)
}

// CanDestroyUser reports whether an allowed destroy should actually remove
// targetID. Destroying oneself is a silent no-op.
func CanDestroyUser(c Caller, targetID int64) bool {
	return !c.Is(targetID)
}

type contextKey struct{}

// NewContext returns ctx carrying c.
func NewContext(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the caller stored in ctx, or Anonymous.
func FromContext(ctx context.Context) Caller {
	if c, ok := ctx.Value(contextKey{}).(Caller); ok {
		return c
	}
	return Anonymous
}
