package main

import (
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stridesim/stride/collision"
	"github.com/stridesim/stride/config"
	"github.com/stridesim/stride/scheduler"
)

// The following program builds a small test scene, walks an actor across it
// and prints the committed positions each simulated second.
func main() {
	if err := config.Load("."); err != nil {
		panic(err)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}).
		Level(config.LogLevel()).With().Timestamp().Logger()

	s := scheduler.New(scheduler.Options{
		Params:         config.Params(),
		Workers:        config.Workers(),
		FixedStep:      config.FixedStep(),
		LOSCacheFrames: config.LOSCacheFrames(),
		CellSize:       config.CellSize(),
		Logger:         &log,
	})
	defer s.Close()

	buildScene(s, log)

	actorRef := uuid.New()
	actor, err := s.AddActor(actorRef,
		mgl32.Vec3{0, 0, 100},
		mgl32.Vec3{20, 20, 60},
		mgl32.Vec3{})
	if err != nil {
		panic(err)
	}

	// Walk forward at 150 units/s, facing +Y.
	actor.SetMovement(mgl32.Vec3{0, 150, 0})

	step := s.FixedStep()
	for frame := 0; frame < 600; frame++ {
		s.Step(step)
		if frame%60 == 59 {
			pos := actor.Position()
			log.Info().
				Float32("x", pos.X()).
				Float32("y", pos.Y()).
				Float32("z", pos.Z()).
				Bool("onGround", actor.OnGround()).
				Msg("actor")
		}
	}
}

// buildScene registers a floor, a climbable ramp, a low step, a wall and a
// pushable crate.
func buildScene(s *scheduler.Scheduler, log zerolog.Logger) {
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}

	// Flat terrain patch under everything.
	field := &collision.HeightField{
		CellSize: 128,
		Width:    17,
		Depth:    17,
		Heights:  make([]float32, 17*17),
	}
	_, err := s.AddTerrain(uuid.New(), mgl32.Vec3{-1024, -1024, 0}, field)
	must(err)

	// A knee-high step the actor should climb without jumping.
	_, err = s.AddStatic(uuid.New(), mgl32.Vec3{0, 300, 15}, mgl32.Vec3{100, 50, 15})
	must(err)

	// A wall to slide along.
	_, err = s.AddStatic(uuid.New(), mgl32.Vec3{60, 600, 100}, mgl32.Vec3{10, 200, 100})
	must(err)

	// A pushable crate in the actor's path.
	_, err = s.AddDynamic(uuid.New(), mgl32.Vec3{0, 500, 25}, mgl32.Vec3{25, 25, 25}, 10)
	must(err)

	log.Info().Int("bodies", s.World().Count()).Msg("scene ready")
}
