// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"encoding/json"
	"net/http"
)

// HTMX request and response headers.
const (
	HeaderHXRequest  = "HX-Request"
	HeaderHXRedirect = "HX-Redirect"
	HeaderHXTrigger  = "HX-Trigger"
	HeaderHXReswap   = "HX-Reswap"
)

// IsHTMX reports whether r was issued by htmx and expects a partial response.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get(HeaderHXRequest) == "true"
}

// Redirect sends the caller to url. Browsers get a 303; htmx requests get an
// HX-Redirect header, since htmx would otherwise swap the followed response
// into the page.
func Redirect(w http.ResponseWriter, r *http.Request, url string) {
	if IsHTMX(r) {
		w.Header().Set(HeaderHXRedirect, url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// SetToast asks the htmx client to show a toast message.
func SetToast(w http.ResponseWriter, message, toastType string) {
	payload, err := json.Marshal(map[string]any{
		"showToast": map[string]string{"message": message, "type": toastType},
	})
	if err != nil {
		return
	}
	w.Header().Set(HeaderHXTrigger, string(payload))
}
