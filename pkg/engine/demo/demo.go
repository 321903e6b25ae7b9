// Package demo is a small built-in dungeon crawl used when no external
// game is configured. It draws with ANSI sequences like any console
// game, so it exercises the same output path as a real one.
package demo

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/odvcencio/crawlterm/pkg/dialog"
	"github.com/odvcencio/crawlterm/pkg/engine"
	"github.com/odvcencio/crawlterm/pkg/input"
	"github.com/odvcencio/crawlterm/pkg/message"
)

const (
	mapW = 40
	mapH = 14

	wall  = '#'
	floor = '.'
	gold  = '$'
	stair = '>'
)

type point struct{ x, y int }

// Game is the demo engine. Each Run starts a fresh game from Seed.
type Game struct {
	Seed uint64
}

// New returns a demo game with a fixed seed.
func New(seed uint64) *Game {
	return &Game{Seed: seed}
}

type state struct {
	rng    *rand.Rand
	tiles  [mapH][mapW]rune
	player point
	depth  int
	gold   int
	turns  int
	notice string

	confirmQuit string
}

// Run implements engine.Engine.
func (g *Game) Run(ctx context.Context, host engine.Host) error {
	st := &state{rng: rand.New(rand.NewPCG(g.Seed, g.Seed^0x9e3779b97f4a7c15)), depth: 1}
	st.generate()
	st.notice = "Welcome! hjkl/yubn or arrows move, q quits."
	host.Post(message.Output{Data: []byte("\x1b[?25l")})
	host.Post(message.Output{Data: st.render()})

	for {
		ev, err := host.NextInput(ctx)
		if err != nil {
			if errors.Is(err, engine.ErrStopped) {
				return nil
			}
			return err
		}
		if ev.Phase != input.Press {
			continue
		}
		done := st.handle(ev.Code, host)
		if done {
			host.Post(message.Output{Data: []byte("\x1b[?25h")})
			host.Post(message.EngineExited{})
			return nil
		}
		host.Post(message.Output{Data: st.render()})
	}
}

// handle applies one key press and reports whether the game is over.
func (st *state) handle(code input.Code, host engine.Host) bool {
	if st.confirmQuit != "" {
		id := st.confirmQuit
		st.confirmQuit = ""
		if code == 'y' || code == 'Y' {
			return true
		}
		host.Post(message.DialogDismiss{ID: id})
		st.notice = "Carry on."
		return false
	}

	if code == 'q' || code == 'Q' {
		d := dialog.New("Really quit?", []string{fmt.Sprintf("You have %d gold on level %d.", st.gold, st.depth)},
			dialog.Option{Key: 'y', Label: "Yes"},
			dialog.Option{Key: 'n', Label: "No"},
		)
		st.confirmQuit = d.ID
		host.Post(message.DialogShow{Dialog: d})
		return false
	}

	dx, dy, ok := direction(code)
	if !ok {
		st.notice = fmt.Sprintf("Unknown command %s.", code)
		return false
	}
	st.move(dx, dy, host)
	return false
}

func direction(code input.Code) (dx, dy int, ok bool) {
	switch code {
	case 'h', input.CodeLeft:
		return -1, 0, true
	case 'l', input.CodeRight:
		return 1, 0, true
	case 'k', input.CodeUp:
		return 0, -1, true
	case 'j', input.CodeDown:
		return 0, 1, true
	case 'y', input.CodeUpLeft:
		return -1, -1, true
	case 'u', input.CodeUpRight:
		return 1, -1, true
	case 'b', input.CodeDownLeft:
		return -1, 1, true
	case 'n', input.CodeDownRight:
		return 1, 1, true
	case '.', input.CodeCenter:
		return 0, 0, true
	}
	return 0, 0, false
}

func (st *state) move(dx, dy int, host engine.Host) {
	st.turns++
	next := point{st.player.x + dx, st.player.y + dy}
	switch st.tiles[next.y][next.x] {
	case wall:
		st.notice = "You bump into a wall."
		return
	case gold:
		n := 5 + st.rng.IntN(20)
		st.gold += n
		st.tiles[next.y][next.x] = floor
		st.notice = fmt.Sprintf("You pick up %d gold.", n)
	case stair:
		st.depth++
		st.generate()
		st.notice = ""
		host.Post(message.DialogShow{Dialog: dialog.Notice(
			fmt.Sprintf("Level %d", st.depth),
			"You descend the stairs.",
		)})
		return
	default:
		if dx == 0 && dy == 0 {
			st.notice = "You wait."
		} else {
			st.notice = ""
		}
	}
	st.player = next
}

func (st *state) generate() {
	for y := range st.tiles {
		for x := range st.tiles[y] {
			if x == 0 || y == 0 || x == mapW-1 || y == mapH-1 {
				st.tiles[y][x] = wall
			} else {
				st.tiles[y][x] = floor
			}
		}
	}
	for i := 0; i < 25+st.depth*3; i++ {
		st.tiles[1+st.rng.IntN(mapH-2)][1+st.rng.IntN(mapW-2)] = wall
	}
	st.player = st.randomFloor()
	for i := 0; i < 6; i++ {
		p := st.randomFloor()
		st.tiles[p.y][p.x] = gold
	}
	p := st.randomFloor()
	st.tiles[p.y][p.x] = stair
}

func (st *state) randomFloor() point {
	for {
		p := point{1 + st.rng.IntN(mapW-2), 1 + st.rng.IntN(mapH-2)}
		if st.tiles[p.y][p.x] == floor && p != st.player {
			return p
		}
	}
}

func (st *state) render() []byte {
	var b strings.Builder
	b.WriteString("\x1b[H\x1b[2J")
	for y := range st.tiles {
		for x, r := range st.tiles[y] {
			if (point{x, y}) == st.player {
				b.WriteString("\x1b[1;33m@\x1b[0m")
				continue
			}
			switch r {
			case wall:
				b.WriteString("\x1b[2m#\x1b[0m")
			case gold:
				b.WriteString("\x1b[33m$\x1b[0m")
			case stair:
				b.WriteString("\x1b[36m>\x1b[0m")
			default:
				b.WriteRune(r)
			}
		}
		b.WriteString("\r\n")
	}
	fmt.Fprintf(&b, "Dlvl:%d  $:%d  T:%d\r\n", st.depth, st.gold, st.turns)
	b.WriteString(st.notice)
	return []byte(b.String())
}
