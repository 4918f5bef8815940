// Package ebiten provides Dear ImGui backend integration for the Ebiten game engine.
package ebiten

import (
	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/plus3/chunkecs/ecs"
)

// ImguiBackend wraps the Ebiten-specific Dear ImGui backend implementation.
// Use this to integrate Dear ImGui rendering into Ebiten game loops.
type ImguiBackend struct {
	*ebitenbackend.EbitenBackend
}

// Game implements ebiten.Game, driving an ECS runner inside ImGui frames.
type Game struct {
	runner  *ecs.Runner
	backend ImguiBackend
	tps     float64

	// DrawScene, if set, draws game content below the ImGui overlay.
	DrawScene func(screen *ebiten.Image)
}

// NewGame creates a game running runner once per tick.
func NewGame(runner *ecs.Runner, backend *ebitenbackend.EbitenBackend) *Game {
	return &Game{
		runner:  runner,
		backend: ImguiBackend{EbitenBackend: backend},
		tps:     float64(ebiten.TPS()),
	}
}

// Backend returns the ImGui backend.
func (g *Game) Backend() ImguiBackend {
	return g.backend
}

func (g *Game) Update() error {
	// ImguiSystem defers render funcs to the command flush inside Once, so
	// the whole frame must sit between BeginFrame and EndFrame.
	g.backend.BeginFrame()
	err := g.runner.Once(1.0 / g.tps)
	g.backend.EndFrame()
	return err
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.DrawScene != nil {
		g.DrawScene(screen)
	}
	g.backend.Draw(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.backend.Layout(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

var _ ebiten.Game = (*Game)(nil)
