package review

import (
	"net/http"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
)

// Frame event names, in emission order for a successful review.
const (
	EventStart      = "start"
	EventOverall    = "overall"
	EventSuggestion = "suggestion"
	EventComplete   = "complete"
	EventError      = "error"
)

// frame is one named unit of the streaming protocol.
type frame struct {
	Event   string
	Payload any
}

// startPayload echoes the request metadata in the opening frame.
type startPayload struct {
	Mode      Mode   `json:"mode"`
	SectionID string `json:"sectionId,omitempty"`
}

// errorPayload carries a failure into the stream once the status line is
// already committed.
type errorPayload struct {
	Message string   `json:"message"`
	Details []string `json:"details"`
}

// resultFrames lays out the finite event list for a finalized response:
// overall, one suggestion per top fix in priority order, then the complete
// sentinel.
func resultFrames(resp Response) []frame {
	frames := make([]frame, 0, len(resp.TopFixes)+2)
	frames = append(frames, frame{Event: EventOverall, Payload: resp.Overall})
	for _, sugg := range resp.TopFixes {
		frames = append(frames, frame{Event: EventSuggestion, Payload: sugg})
	}
	// The sentinel still carries an empty object so consumers that JSON-parse
	// every frame keep it.
	frames = append(frames, frame{Event: EventComplete, Payload: gin.H{}})
	return frames
}

// emitFrames writes frames in order with a cancellation check before each
// write. On client disconnect it stops after the in-flight frame and
// reports false; no error is raised for the aborted write.
func emitFrames(c *gin.Context, frames []frame) bool {
	flusher, _ := c.Writer.(http.Flusher)
	for _, f := range frames {
		select {
		case <-c.Request.Context().Done():
			return false
		default:
		}
		if err := sse.Encode(c.Writer, sse.Event{Event: f.Event, Data: f.Payload}); err != nil {
			return false
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	return true
}

func setStreamHeaders(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
}
