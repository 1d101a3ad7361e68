package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roach88/georeplay/internal/playback"
	"github.com/roach88/georeplay/internal/policy"
	"github.com/roach88/georeplay/internal/replay"
	"github.com/roach88/georeplay/internal/session"
)

// MaxFramesPerRequest bounds GET /frames.
const MaxFramesPerRequest = 1000

// Handler serves one replay session.
type Handler struct {
	session *session.Session
}

// NewHandler creates a handler bound to s.
func NewHandler(s *session.Session) *Handler {
	return &Handler{session: s}
}

// PolicyView is the body of GET /policy. Mountable is the subset of the
// requested layers the policy admits.
type PolicyView struct {
	Policy    policy.Policy      `json:"policy"`
	Time      policy.TimeContext `json:"time"`
	Mountable []policy.Layer     `json:"mountable"`
}

// FrameView is a frame plus its fingerprint and summary.
type FrameView struct {
	Frame       *replay.Frame       `json:"frame"`
	Fingerprint string              `json:"fingerprint"`
	Summary     replay.FrameSummary `json:"summary"`
}

// GetPolicy handles GET /api/v1/policy?layers=
// layers may be repeated or comma separated. Without it every layer the
// policy names is checked.
func (h *Handler) GetPolicy(c *gin.Context) {
	mc := h.session.Mode()

	var requested []policy.Layer
	for _, v := range c.QueryArray("layers") {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				requested = append(requested, policy.Layer(name))
			}
		}
	}
	if len(requested) == 0 {
		requested = append(slices.Clone(mc.Policy.AllowedLayers), mc.Policy.ForbiddenLayers...)
	}

	success(c, PolicyView{
		Policy:    mc.Policy,
		Time:      mc.Time,
		Mountable: mc.Policy.FilterLayers(requested),
	})
}

// GetRange handles GET /api/v1/range
func (h *Handler) GetRange(c *gin.Context) {
	r, ok := h.session.Engine().TimeRange()
	if !ok {
		fail(c, http.StatusNotFound, "no dataset loaded")
		return
	}
	success(c, r)
}

// GetFrame handles GET /api/v1/frame?at=
// Without at, the frame at the playback cursor is returned.
func (h *Handler) GetFrame(c *gin.Context) {
	ts := h.session.ControlState().CurrentTime
	if v := c.Query("at"); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			badRequest(c, fmt.Sprintf("invalid at: %v", err))
			return
		}
		ts = t
	}

	f := h.session.Engine().FrameAt(ts)
	if f == nil {
		fail(c, http.StatusNotFound, "no dataset loaded")
		return
	}
	view, err := frameView(f)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	success(c, view)
}

// GetFrames handles GET /api/v1/frames?from=&to=&interval=
func (h *Handler) GetFrames(c *gin.Context) {
	from, err := time.Parse(time.RFC3339Nano, c.Query("from"))
	if err != nil {
		badRequest(c, fmt.Sprintf("invalid from: %v", err))
		return
	}
	to, err := time.Parse(time.RFC3339Nano, c.Query("to"))
	if err != nil {
		badRequest(c, fmt.Sprintf("invalid to: %v", err))
		return
	}
	interval, err := time.ParseDuration(c.DefaultQuery("interval", "1m"))
	if err != nil || interval <= 0 {
		badRequest(c, "interval must be a positive duration")
		return
	}
	if !from.After(to) && to.Sub(from)/interval+1 > MaxFramesPerRequest {
		badRequest(c, fmt.Sprintf("range yields more than %d frames", MaxFramesPerRequest))
		return
	}

	frames := h.session.Engine().FramesInRange(from, to, interval)
	views := make([]FrameView, 0, len(frames))
	for _, f := range frames {
		view, err := frameView(f)
		if err != nil {
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		views = append(views, view)
	}
	success(c, gin.H{
		"frames": views,
		"count":  len(views),
	})
}

// GetPlayback handles GET /api/v1/playback
func (h *Handler) GetPlayback(c *gin.Context) {
	success(c, h.session.ControlState())
}

// Toggle handles POST /api/v1/playback/toggle
func (h *Handler) Toggle(c *gin.Context) {
	h.control(c, h.session.PlayPause)
}

// Stop handles POST /api/v1/playback/stop
func (h *Handler) Stop(c *gin.Context) {
	h.control(c, h.session.Stop)
}

// StepForward handles POST /api/v1/playback/forward
func (h *Handler) StepForward(c *gin.Context) {
	h.control(c, h.session.StepForward)
}

// StepBackward handles POST /api/v1/playback/backward
func (h *Handler) StepBackward(c *gin.Context) {
	h.control(c, h.session.StepBackward)
}

// SeekRequest is the body of POST /playback/seek. Exactly one field is set.
type SeekRequest struct {
	Time    *time.Time `json:"time"`
	Percent *float64   `json:"percent"`
}

// Seek handles POST /api/v1/playback/seek
func (h *Handler) Seek(c *gin.Context) {
	var req SeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Sprintf("invalid body: %v", err))
		return
	}
	switch {
	case req.Time != nil && req.Percent == nil:
		h.control(c, func() error { return h.session.Seek(*req.Time) })
	case req.Percent != nil && req.Time == nil:
		h.control(c, func() error { return h.session.SeekPercent(*req.Percent) })
	default:
		badRequest(c, "exactly one of time or percent is required")
	}
}

// SpeedRequest is the body of POST /playback/speed.
type SpeedRequest struct {
	Speed float64 `json:"speed" binding:"required"`
}

// SetSpeed handles POST /api/v1/playback/speed
func (h *Handler) SetSpeed(c *gin.Context) {
	var req SpeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Sprintf("invalid body: %v", err))
		return
	}
	h.control(c, func() error { return h.session.SetSpeed(playback.Speed(req.Speed)) })
}

func (h *Handler) control(c *gin.Context, fn func() error) {
	if err := fn(); err != nil {
		switch {
		case errors.Is(err, session.ErrNotActive):
			fail(c, http.StatusConflict, err.Error())
		case errors.Is(err, playback.ErrUnsupportedSpeed):
			badRequest(c, err.Error())
		default:
			fail(c, http.StatusInternalServerError, err.Error())
		}
		return
	}
	success(c, h.session.ControlState())
}

func frameView(f *replay.Frame) (FrameView, error) {
	fp, err := replay.Fingerprint(f)
	if err != nil {
		return FrameView{}, err
	}
	return FrameView{Frame: f, Fingerprint: fp, Summary: replay.Summarize(f)}, nil
}
