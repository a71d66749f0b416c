package api

import (
	"fmt"
	"net/http"

	"storefront/internal/model"
	"storefront/internal/notify"
)

// User-facing failure texts.
const (
	MsgSessionExpired  = "Session expired. Please login again."
	MsgForbidden       = "Access denied. You don't have permission to perform this action."
	MsgNotFound        = "Requested resource not found."
	MsgValidation      = "Validation failed."
	MsgServer          = "Server error. Please try again later."
	MsgNetwork         = "Network error. Please check your internet connection."
	MsgUnexpected      = "An unexpected error occurred."
	MsgUserAuthMissing = "User authentication required. Please log in properly."
	MsgClientAuth      = "Failed to authenticate with server. Please try again."
)

func defaultMessage(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return MsgSessionExpired
	case http.StatusForbidden:
		return MsgForbidden
	case http.StatusNotFound:
		return MsgNotFound
	case http.StatusUnprocessableEntity:
		return MsgValidation
	case http.StatusInternalServerError:
		return MsgServer
	default:
		return fmt.Sprintf("Request failed with status %d", status)
	}
}

// notifyFailure pushes the toast(s) for a failed result. Only HTTP error
// statuses, transport failures and internal errors are announced here; a 2xx
// envelope that says success:0 is left to the caller.
func notifyFailure(n notify.Notifier, res *model.Result) {
	if res.Success || res.Cancelled {
		return
	}

	switch {
	case res.Kind == model.FailureNetwork:
		n.Notify(notify.LevelError, MsgNetwork)
	case res.Kind == model.FailureInternal:
		n.Notify(notify.LevelError, MsgUnexpected)
	case res.Status == 0:
		// local refusal (no user token); the message is the explanation
		n.Notify(notify.LevelError, res.Message)
	case res.Status >= 200 && res.Status < 300:
	case res.Status == http.StatusUnauthorized:
		n.Notify(notify.LevelError, MsgSessionExpired)
	case res.Status == http.StatusForbidden:
		n.Notify(notify.LevelError, MsgForbidden)
	case res.Status == http.StatusNotFound:
		n.Notify(notify.LevelError, MsgNotFound)
	case res.Status == http.StatusUnprocessableEntity:
		if msgs := res.FieldMessages(); len(msgs) > 0 {
			for _, m := range msgs {
				n.Notify(notify.LevelError, m)
			}
			return
		}
		n.Notify(notify.LevelError, res.Message)
	case res.Status == http.StatusInternalServerError:
		n.Notify(notify.LevelError, MsgServer)
	default:
		n.Notify(notify.LevelError, res.Message)
	}
}
