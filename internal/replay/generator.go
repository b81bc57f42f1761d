package replay

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/okian/pitchtag/internal/domain/model"
	"github.com/okian/pitchtag/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1_000_000
	maxShapes          = 4
	malformedOneIn     = 10
)

var (
	pointActions = []string{model.ActionShot, model.ActionDuel}
	lineActions  = []string{model.ActionPass, model.ActionCarry, model.ActionCross}
)

// GenerateScript builds a script of n possessions with random shapes. Roughly
// one line in ten is malformed so the server has something to drop.
func GenerateScript(ctx context.Context, n int) Script {
	s := Script{
		Form: model.FormPatch{
			HomeTeam: strPtr("Home XI"),
			AwayTeam: strPtr("Away XI"),
			URL:      strPtr("https://example.com/match"),
		},
		Possessions: make([]Possession, 0, n),
	}

	malformed := 0
	for i := 0; i < n; i++ {
		var p Possession
		if i%2 == 1 {
			p.Form = &model.FormPatch{
				Team:      strPtr(pick(model.Teams)),
				Direction: strPtr(pick(model.Directions)),
			}
		}
		for j := randInt(maxShapes); j > 0; j-- {
			p.Points = append(p.Points, model.DrawnPoint{X: randCoord(), Y: randCoord(), Action: pick(pointActions)})
		}
		for j := randInt(maxShapes); j > 0; j-- {
			l := model.DrawnLine{
				Xs:     []float64{randCoord(), randCoord()},
				Ys:     []float64{randCoord(), randCoord()},
				Action: pick(lineActions),
			}
			if randInt(malformedOneIn) == 0 {
				l.Xs = l.Xs[:1]
				malformed++
			}
			p.Lines = append(p.Lines, l)
		}
		s.Possessions = append(s.Possessions, p)
	}

	logger.Get().Info(ctx, "generated script",
		logger.Int("possessions", n),
		logger.Int("expectedRows", s.ExpectedRows()),
		logger.Int("malformedLines", malformed))
	return s
}

// randInt returns a uniform int in [0, n).
func randInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// randCoord returns a coordinate in [0, 100) with more precision than the
// server keeps.
func randCoord() float64 {
	return float64(randInt(100*randomFloatDivisor)) / randomFloatDivisor
}

func pick(options []string) string {
	return options[randInt(len(options))]
}

func strPtr(s string) *string { return &s }
