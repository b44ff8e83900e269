package remote

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rifflynx/chat"
	"rifflynx/debug"
	"rifflynx/notes"
	"rifflynx/session"
)

type textRequest struct {
	Text string `json:"text" binding:"required"`
}

type notesRequest struct {
	Notes [][]string `json:"notes" binding:"required,min=1"`
}

type composerRequest struct {
	Text    *string `json:"text"`
	Focused *bool   `json:"focused"`
}

// StateResponse is the JSON form of a session snapshot
type StateResponse struct {
	State           string         `json:"state"`
	DraftText       string         `json:"draftText"`
	DraftNotes      []string       `json:"draftNotes"`
	Held            []string       `json:"held"`
	Visualized      []string       `json:"visualized"`
	Messages        []chat.Message `json:"messages"`
	Recent          int            `json:"recentNotes"`
	Composition     string         `json:"composition"`
	ComposerFocused bool           `json:"composerFocused"`
	DeviceStatus    string         `json:"deviceStatus"`
	VoiceStatus     string         `json:"voiceStatus"`
}

func newStateResponse(s session.Snapshot) StateResponse {
	return StateResponse{
		State:           s.State.String(),
		DraftText:       s.Draft.Text,
		DraftNotes:      nonNil(s.Draft.Notes),
		Held:            nonNil(s.Held),
		Visualized:      nonNil(s.Visualized),
		Messages:        s.Messages,
		Recent:          s.Recent,
		Composition:     s.Composition,
		ComposerFocused: s.ComposerFocused,
		DeviceStatus:    s.DeviceStatus,
		VoiceStatus:     s.VoiceStatus,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// HealthCheck reports the server is up
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) state(c *gin.Context) {
	c.JSON(http.StatusOK, newStateResponse(s.ctrl.Snapshot()))
}

func (s *Server) transcript(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.ctrl.Transcript(req.Text)
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (s *Server) submit(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.ctrl.Submit(req.Text)
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (s *Server) preview(c *gin.Context) {
	var req notesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	steps, ok := playable(c, req.Notes)
	if !ok {
		return
	}
	s.ctrl.Preview(steps)
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (s *Server) play(c *gin.Context) {
	var req notesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	steps, ok := playable(c, req.Notes)
	if !ok {
		return
	}
	s.ctrl.PlaySequence(steps)
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// playable rewrites requested names to registry spelling so the highlight
// matches what sounds. It answers 400 itself when nothing is left.
func playable(c *gin.Context, raw [][]string) ([][]string, bool) {
	steps, dropped := notes.CanonicalSteps(raw)
	if len(steps) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no playable notes", "unknown": dropped})
		return nil, false
	}
	if len(dropped) > 0 {
		debug.Log("remote", "dropping unknown notes %q", dropped)
	}
	return steps, true
}

// resetVoice re-enables speech recognition after a fatal error
func (s *Server) resetVoice(c *gin.Context) {
	if s.voice == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "voice recognition is not configured"})
		return
	}
	s.voice.Reset()
	st, _ := s.voice.Status()
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "voice": st.String()})
}

func (s *Server) stop(c *gin.Context) {
	s.ctrl.StopPlayback()
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// previewPart previews a notes part of a logged message
func (s *Server) previewPart(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("part"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "part must be a number"})
		return
	}
	for _, msg := range s.ctrl.Snapshot().Messages {
		if msg.ID != c.Param("id") {
			continue
		}
		if idx < 0 || idx >= len(msg.Parts) || msg.Parts[idx].Kind != chat.Notes {
			c.JSON(http.StatusNotFound, gin.H{"error": "no notes part at that index"})
			return
		}
		s.ctrl.Preview(msg.Parts[idx].Steps)
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
}

func (s *Server) composer(c *gin.Context) {
	var req composerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Text == nil && req.Focused == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text or focused is required"})
		return
	}
	if req.Focused != nil {
		s.ctrl.SetComposerFocus(*req.Focused)
	}
	if req.Text != nil {
		s.ctrl.SetComposition(*req.Text)
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (s *Server) animationComplete(c *gin.Context) {
	s.ctrl.AnimationComplete()
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
