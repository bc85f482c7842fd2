package httpx

import (
	"net/http"

	"github.com/atrium-app/atrium/internal/shared"
)

// failureBody is the envelope rendered for every failed operation: a success
// flag, the stable reason code and a human-readable message. Raw storage
// errors never reach this envelope.
type failureBody struct {
	Success bool          `json:"success"`
	Reason  shared.Reason `json:"reason"`
	Message string        `json:"message"`
}

// RespondError renders a classified error. Rejections map to 4xx statuses by
// reason code; infrastructure faults map to 503 so clients can retry; anything
// unclassified is a 500 with no detail leaked.
func RespondError(w http.ResponseWriter, err error) {
	if rej, ok := shared.AsRejection(err); ok {
		JSON(w, statusFor(rej.Code), failureBody{Reason: rej.Code, Message: rej.Message})
		return
	}
	if shared.IsInfra(err) {
		JSON(w, http.StatusServiceUnavailable, failureBody{
			Reason:  shared.ReasonInfrastructure,
			Message: "temporary storage failure, retry later",
		})
		return
	}
	JSON(w, http.StatusInternalServerError, failureBody{
		Reason:  shared.ReasonInfrastructure,
		Message: "internal error",
	})
}

func statusFor(code shared.Reason) int {
	switch code {
	case shared.ReasonNotFound, shared.ReasonUnknownRoom, shared.ReasonUnknownUser, shared.ReasonUnknownParticipant:
		return http.StatusNotFound
	case shared.ReasonNotAuthorized:
		return http.StatusForbidden
	case shared.ReasonRoomConflict, shared.ReasonUserConflict, shared.ReasonAlreadyCancelled,
		shared.ReasonCancelWindowClosed, shared.ReasonDuplicateRoomName, shared.ReasonDuplicateUsername:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
