package main

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/actionengine/action"
	"github.com/milk9111/actionengine/catalog"
	"github.com/milk9111/actionengine/ecs"
	"github.com/milk9111/actionengine/replication"
	"github.com/milk9111/actionengine/server"
	"go.uber.org/zap"
	"golang.design/x/clipboard"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font/basicfont"
)

const (
	screenWidth   = 480
	screenHeight  = 270
	tps           = 60
	pixelsPerUnit = 24.0
	bodySize      = 14.0
	logLines      = 8
)

// Game drives one local world and draws its characters, live actions and
// the tail of the replication journal.
type Game struct {
	world   *server.World
	journal *replication.Journal
	log     *zap.Logger
	face    ebtext.Face

	player ecs.Entity
	dummy  ecs.Entity

	clipboardOK bool
	status      string
}

func NewGame(content *catalog.Catalog, log *zap.Logger) *Game {
	journal := replication.NewJournal(256)
	world := server.NewWorld(content, server.Options{Logger: log, Sink: journal})

	g := &Game{
		world:   world,
		journal: journal,
		log:     log,
		face:    ebtext.NewGoXFace(basicfont.Face7x13),
	}
	g.player = world.Spawn("player", 6, 5).Handle
	g.dummy = world.Spawn("dummy", 12, 5).Handle

	if err := clipboard.Init(); err != nil {
		log.Warn("clipboard unavailable", zap.Error(err))
	} else {
		g.clipboardOK = true
	}
	return g
}

func (g *Game) request(t action.Type) {
	req := action.Request{
		Type:        t,
		Target:      g.dummy,
		ShouldQueue: ebiten.IsKeyPressed(ebiten.KeyShift),
		Reason:      "input",
	}
	ok, err := g.world.RequestAction(g.player, req)
	switch {
	case err != nil:
		g.status = err.Error()
	case ok:
		g.status = fmt.Sprintf("%s admitted", t)
	default:
		g.status = fmt.Sprintf("%s refused", t)
	}
}

func (g *Game) Update() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		g.request("stealth_mode")
	case inpututil.IsKeyJustPressed(ebiten.KeyE):
		g.request("emote_wave")
	case inpututil.IsKeyJustPressed(ebiten.KeyB):
		g.request("smoke_bomb")
	case inpututil.IsKeyJustPressed(ebiten.KeyA):
		_ = g.world.Attack(g.player, g.dummy)
		g.status = "player attacks"
	case inpututil.IsKeyJustPressed(ebiten.KeyH):
		_ = g.world.Attack(g.dummy, g.player)
		g.status = "player hit"
	case inpututil.IsKeyJustPressed(ebiten.KeyX):
		n, _ := g.world.CancelActions(g.player, "stealth_mode")
		g.status = fmt.Sprintf("cancelled %d", n)
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		g.copyJournal()
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		mx, my := ebiten.CursorPosition()
		moving, _ := g.world.MoveTo(g.player, float64(mx)/pixelsPerUnit, float64(my)/pixelsPerUnit)
		if !moving {
			g.status = "move refused"
		}
	}

	g.world.Step(1.0 / tps)
	return nil
}

func (g *Game) copyJournal() {
	if !g.clipboardOK {
		g.status = "clipboard unavailable"
		return
	}
	var b strings.Builder
	for _, msg := range g.journal.Messages() {
		data, err := msg.Encode()
		if err != nil {
			continue
		}
		b.Write(data)
		b.WriteByte('\n')
	}
	clipboard.Write(clipboard.FmtText, []byte(b.String()))
	g.status = "journal copied"
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{0x18, 0x18, 0x20, 0xff})

	y := 12.0
	for _, e := range g.world.Characters() {
		c, ok := g.world.Character(e)
		if !ok {
			continue
		}
		g.drawCharacter(screen, c)
		view := c.View()
		line := fmt.Sprintf("%s %s stealthy=%t queued=%d", view.Name, view.MovementState, view.Stealthy, view.Queued)
		for _, a := range view.Actions {
			line += fmt.Sprintf(" [%s %s %.2f]", a.Type, a.Phase, a.TimeRunning)
		}
		g.drawText(screen, line, 4, y, colornames.White)
		y += 14
	}

	msgs := g.journal.Messages()
	if len(msgs) > logLines {
		msgs = msgs[len(msgs)-logLines:]
	}
	y = screenHeight - 14*float64(logLines+2)
	for _, m := range msgs {
		g.drawText(screen, describe(m), 4, y, colornames.Lightgrey)
		y += 14
	}
	g.drawText(screen, "S stealth  E emote  B smoke  A attack  H hit  X cancel  C copy  shift=queue", 4, screenHeight-28, colornames.Gold)
	g.drawText(screen, g.status, 4, screenHeight-14, colornames.Lightgreen)
}

func (g *Game) drawCharacter(screen *ebiten.Image, c *server.Character) {
	x, y := c.Movement.Position()
	clr := color.RGBA{0x4a, 0x90, 0xd9, 0xff}
	if c.Handle == g.dummy {
		clr = color.RGBA{0xd9, 0x6a, 0x4a, 0xff}
	}
	if c.Net.StealthyVar().Value() {
		clr.A = 0x50
	}
	if c.Movement.IsPerformingForcedMovement() {
		clr = color.RGBA{0xff, 0xff, 0xff, 0xff}
	}
	px := float32(x*pixelsPerUnit - bodySize/2)
	py := float32(y*pixelsPerUnit - bodySize/2)
	vector.FillRect(screen, px, py, bodySize, bodySize, clr, false)
}

func (g *Game) drawText(screen *ebiten.Image, s string, x, y float64, clr color.Color) {
	op := &ebtext.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	ebtext.Draw(screen, s, g.face, op)
}

func describe(m replication.Message) string {
	switch m.Kind {
	case replication.KindField:
		return fmt.Sprintf("#%d t%d owner=%d %s=%v", m.Seq, m.Tick, m.Owner, m.Field, m.Value)
	default:
		return fmt.Sprintf("#%d t%d owner=%d %s %s", m.Seq, m.Tick, m.Owner, m.Kind, m.ActionType)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}
