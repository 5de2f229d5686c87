package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/milk9111/actionengine/action"
	"github.com/milk9111/actionengine/ecs"
	"go.uber.org/zap"
)

const jsonKeyError = "error"

type spawnRequest struct {
	Name string  `json:"name" binding:"required"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type activityRequest struct {
	Activity string `json:"activity" binding:"required"`
}

type attackRequest struct {
	Target uint64 `json:"target" binding:"required"`
}

type moveRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// API serves the control surface over a running World.
type API struct {
	world *World
	log   *zap.Logger
}

// NewRouter builds the gin engine. ws and metrics may be nil to leave those
// routes out.
func NewRouter(w *World, ws http.Handler, metrics http.Handler, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	a := &API{world: w, log: log.Named("api")}

	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/characters", a.spawn)
	r.GET("/characters/:id", a.get)
	r.DELETE("/characters/:id", a.despawn)
	r.POST("/characters/:id/actions", a.requestAction)
	r.DELETE("/characters/:id/actions/:type", a.cancelType)
	r.POST("/characters/:id/activities", a.activity)
	r.POST("/characters/:id/attack", a.attack)
	r.POST("/characters/:id/move", a.move)
	if ws != nil {
		r.GET("/ws", gin.WrapH(ws))
	}
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}
	return r
}

func entityParam(c *gin.Context) (ecs.Entity, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || !ecs.Entity(id).Valid() {
		c.JSON(http.StatusBadRequest, gin.H{jsonKeyError: "invalid character id"})
		return ecs.Nil, false
	}
	return ecs.Entity(id), true
}

// do runs fn on the simulation goroutine and maps world errors to status
// codes. It reports whether the handler should keep going. A 503 means fn
// never ran.
func (a *API) do(c *gin.Context, fn func(w *World) error) bool {
	var ferr error
	if err := a.world.Do(c.Request.Context(), func(w *World) { ferr = fn(w) }); err != nil {
		a.log.Warn("world unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{jsonKeyError: err.Error()})
		return false
	}
	switch {
	case ferr == nil:
		return true
	case errors.Is(ferr, ErrUnknownCharacter):
		c.JSON(http.StatusNotFound, gin.H{jsonKeyError: ferr.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{jsonKeyError: ferr.Error()})
	}
	return false
}

func (a *API) spawn(c *gin.Context) {
	var req spawnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{jsonKeyError: "invalid request"})
		return
	}
	var view CharacterView
	if !a.do(c, func(w *World) error {
		view = w.Spawn(req.Name, req.X, req.Y).View()
		return nil
	}) {
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (a *API) get(c *gin.Context) {
	e, ok := entityParam(c)
	if !ok {
		return
	}
	var view CharacterView
	if !a.do(c, func(w *World) error {
		ch, ok := w.Character(e)
		if !ok {
			return ErrUnknownCharacter
		}
		view = ch.View()
		return nil
	}) {
		return
	}
	c.JSON(http.StatusOK, view)
}

func (a *API) despawn(c *gin.Context) {
	e, ok := entityParam(c)
	if !ok {
		return
	}
	if !a.do(c, func(w *World) error {
		if !w.Despawn(e) {
			return ErrUnknownCharacter
		}
		return nil
	}) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) requestAction(c *gin.Context) {
	e, ok := entityParam(c)
	if !ok {
		return
	}
	var req action.Request
	if err := c.ShouldBindJSON(&req); err != nil || req.Type == "" {
		c.JSON(http.StatusBadRequest, gin.H{jsonKeyError: "invalid request"})
		return
	}
	if req.Reason == "" {
		req.Reason = "api"
	}
	var admitted bool
	if !a.do(c, func(w *World) error {
		var err error
		admitted, err = w.RequestAction(e, req)
		return err
	}) {
		return
	}
	status := http.StatusAccepted
	if !admitted {
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"admitted": admitted, "type": req.Type})
}

func (a *API) cancelType(c *gin.Context) {
	e, ok := entityParam(c)
	if !ok {
		return
	}
	t := action.Type(c.Param("type"))
	var n int
	if !a.do(c, func(w *World) error {
		var err error
		n, err = w.CancelActions(e, t)
		return err
	}) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": n, "type": t})
}

func (a *API) activity(c *gin.Context) {
	e, ok := entityParam(c)
	if !ok {
		return
	}
	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{jsonKeyError: "invalid request"})
		return
	}
	kind, err := action.ParseActivity(req.Activity)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{jsonKeyError: err.Error()})
		return
	}
	if !a.do(c, func(w *World) error { return w.ReportActivity(e, kind) }) {
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"activity": kind.String()})
}

func (a *API) attack(c *gin.Context) {
	e, ok := entityParam(c)
	if !ok {
		return
	}
	var req attackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{jsonKeyError: "invalid request"})
		return
	}
	if !a.do(c, func(w *World) error { return w.Attack(e, ecs.Entity(req.Target)) }) {
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"attacker": uint64(e), "target": req.Target})
}

func (a *API) move(c *gin.Context) {
	e, ok := entityParam(c)
	if !ok {
		return
	}
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{jsonKeyError: "invalid request"})
		return
	}
	var moving bool
	if !a.do(c, func(w *World) error {
		var err error
		moving, err = w.MoveTo(e, req.X, req.Y)
		return err
	}) {
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"moving": moving})
}
