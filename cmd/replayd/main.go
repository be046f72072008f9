// replayd is a development stand-in for the processing backend. It serves the
// same wire contract (SSE push stream, live WebSocket, zone CRUD, settings,
// health, analytics) from synthetic replay data, so the operator console can
// run without the detection pipeline.
package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"strconv"
	"sync"
	"time"

	"hazardlens/pkg/logger"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type replayServer struct {
	demo   *demoSet
	logger *zap.SugaredLogger

	mu    sync.Mutex
	zones map[string]gin.H
	order []string
}

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	zapLogger := logger.NewWithFormat(*level, "console")
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	log.Info("generating replay data")
	srv := &replayServer{
		demo:   generateDemoSet(),
		logger: log,
		zones:  make(map[string]gin.H),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	{
		api.GET("/health", srv.health)
		api.GET("/demo/stream", srv.stream)
		api.GET("/demo/analytics", srv.analytics)
		api.GET("/jobs/:id/stream", srv.stream)
		api.GET("/jobs/:id/analytics", srv.analytics)
		api.GET("/jobs/:id/status", srv.jobStatus)
		api.GET("/jobs/:id/events", srv.jobEvents)
		api.POST("/upload", srv.upload)
		api.GET("/zones", srv.listZones)
		api.POST("/zones", srv.createZone)
		api.DELETE("/zones/:id", srv.deleteZone)
		api.PUT("/settings", srv.updateSettings)
	}
	router.GET("/ws/live", srv.live)

	log.Infow("replayd listening", "addr", *addr)
	if err := router.Run(*addr); err != nil {
		log.Fatalw("server stopped", "error", err)
	}
}

func (s *replayServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"model_available": true,
		"model_name":      "replay",
	})
}

// stream replays the demo frames as server-sent events at the demo fps.
func (s *replayServer) stream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	limiter := rate.NewLimiter(rate.Limit(demoFPS), 1)
	flusher, _ := c.Writer.(http.Flusher)

	for _, frame := range s.demo.Frames {
		if err := limiter.Wait(c.Request.Context()); err != nil {
			return
		}

		sse.Encode(c.Writer, sse.Event{
			Event: "frame",
			Data: gin.H{
				"frame_number":        frame.Number,
				"risk_score":          frame.RiskScore,
				"compliance_rate":     frame.ComplianceRate,
				"tracked_objects":     frame.TrackedObjects,
				"annotated_frame_b64": frame.PayloadB64,
			},
		})
		for _, alert := range frame.Alerts {
			sse.Encode(c.Writer, sse.Event{Event: "alert", Data: alert})
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	sse.Encode(c.Writer, sse.Event{Event: "complete", Data: gin.H{}})
	if flusher != nil {
		flusher.Flush()
	}
}

func (s *replayServer) analytics(c *gin.Context) {
	c.JSON(http.StatusOK, s.demo.Analytics)
}

func (s *replayServer) jobStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"job_id":           c.Param("id"),
		"status":           "complete",
		"progress":         1.0,
		"total_frames":     len(s.demo.Frames),
		"processed_frames": len(s.demo.Frames),
	})
}

func (s *replayServer) jobEvents(c *gin.Context) {
	severity := c.Query("severity")
	limit, _ := strconv.Atoi(c.Query("limit"))

	events := make([]demoAlert, 0)
	for _, frame := range s.demo.Frames {
		for _, alert := range frame.Alerts {
			if severity != "" && alert.Severity != severity {
				continue
			}
			events = append(events, alert)
		}
	}
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	c.JSON(http.StatusOK, events)
}

// upload accepts a video file and pretends to queue it; the replay set stands
// in for the processed output.
func (s *replayServer) upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}

	jobID := uuid.NewString()[:8]
	s.logger.Infow("upload accepted", "filename", file.Filename, "size", file.Size, "job_id", jobID)
	c.JSON(http.StatusOK, gin.H{"job_id": jobID, "status": "queued"})
}

func (s *replayServer) listZones(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	zones := make([]gin.H, 0, len(s.order))
	for _, id := range s.order {
		zones = append(zones, s.zones[id])
	}
	c.JSON(http.StatusOK, zones)
}

func (s *replayServer) createZone(c *gin.Context) {
	var body struct {
		Name     string       `json:"name"`
		ZoneType string       `json:"zone_type"`
		Polygon  [][2]float64 `json:"polygon"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(body.Polygon) < 3 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "polygon needs at least 3 vertices"})
		return
	}

	id := uuid.NewString()[:8]
	s.mu.Lock()
	s.zones[id] = gin.H{
		"id":        id,
		"name":      body.Name,
		"zone_type": body.ZoneType,
		"polygon":   body.Polygon,
	}
	s.order = append(s.order, id)
	s.mu.Unlock()

	s.logger.Infow("zone created", "zone_id", id, "type", body.ZoneType)
	c.JSON(http.StatusOK, gin.H{"id": id, "status": "created"})
}

func (s *replayServer) deleteZone(c *gin.Context) {
	id := c.Param("id")

	s.mu.Lock()
	_, ok := s.zones[id]
	if ok {
		delete(s.zones, id)
		for i, zid := range s.order {
			if zid == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Zone not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *replayServer) updateSettings(c *gin.Context) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.logger.Infow("settings updated", "fields", len(body))
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// live accepts capture frames over WebSocket and answers each with a
// processed-frame payload drawn from the replay set.
func (s *replayServer) live(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.logger.Info("live session started")
	frameNumber := 0

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.logger.Infow("live session ended", "error", err)
			return
		}

		var inbound struct {
			Frame string `json:"frame"`
		}
		if err := json.Unmarshal(data, &inbound); err != nil || inbound.Frame == "" {
			continue
		}

		replay := s.demo.Frames[frameNumber%len(s.demo.Frames)]
		events := make([]demoAlert, len(replay.Alerts))
		copy(events, replay.Alerts)
		for i := range events {
			events[i].Timestamp = time.Now().Format(time.RFC3339Nano)
		}

		resp := gin.H{
			"frame_number":        frameNumber,
			"risk_score":          replay.RiskScore,
			"compliance_rate":     replay.ComplianceRate,
			"tracked_objects":     replay.TrackedObjects,
			"events":              events,
			"annotated_frame_b64": inbound.Frame,
		}
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
		frameNumber++
	}
}
