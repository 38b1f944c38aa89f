package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/stridesim/stride/sim"
)

// Load reads configuration from stride.cfg.json in configDir and sets default
// values. A missing file is fine; the defaults cover everything.
func Load(configDir string) error {
	d := sim.DefaultParams()

	viper.SetDefault("logLevel", "info")

	viper.SetDefault("scheduler.workers", 0)
	viper.SetDefault("scheduler.stepHz", 60)
	viper.SetDefault("scheduler.losCacheFrames", 5)
	viper.SetDefault("scheduler.cellSize", 256)

	viper.SetDefault("sim.gravity", d.Gravity)
	viper.SetDefault("sim.maxSlopeAngle", d.MaxSlopeAngle)
	viper.SetDefault("sim.stepSizeUp", d.StepSizeUp)
	viper.SetDefault("sim.stepSizeDown", d.StepSizeDown)
	viper.SetDefault("sim.groundOffset", d.GroundOffset)
	viper.SetDefault("sim.collisionMargin", d.CollisionMargin)
	viper.SetDefault("sim.maxIterations", d.MaxIterations)
	viper.SetDefault("sim.inertBuoyancy", d.InertBuoyancy)
	viper.SetDefault("sim.stormWalkMult", d.StormWalkMult)
	viper.SetDefault("sim.pushStrength", d.PushStrength)
	viper.SetDefault("sim.pushMinImpulse", d.PushMinImpulse)
	viper.SetDefault("sim.pushMaxImpulse", d.PushMaxImpulse)
	viper.SetDefault("sim.stuckAbandonFrames", d.StuckAbandonFrames)
	viper.SetDefault("sim.stuckMoveTolerance", d.StuckMoveTolerance)
	viper.SetDefault("sim.maxUnstuckNudge", d.MaxUnstuckNudge)
	viper.SetDefault("sim.allowedPenetration", d.AllowedPenetration)
	viper.SetDefault("sim.verticalNudge", d.VerticalNudge)

	viper.SetConfigName("stride.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %v", err)
	}
	return nil
}

// Params assembles the movement tuning from the loaded configuration.
func Params() sim.Params {
	return sim.Params{
		Gravity:            float32(viper.GetFloat64("sim.gravity")),
		MaxSlopeAngle:      float32(viper.GetFloat64("sim.maxSlopeAngle")),
		StepSizeUp:         float32(viper.GetFloat64("sim.stepSizeUp")),
		StepSizeDown:       float32(viper.GetFloat64("sim.stepSizeDown")),
		GroundOffset:       float32(viper.GetFloat64("sim.groundOffset")),
		CollisionMargin:    float32(viper.GetFloat64("sim.collisionMargin")),
		MaxIterations:      viper.GetInt("sim.maxIterations"),
		InertBuoyancy:      float32(viper.GetFloat64("sim.inertBuoyancy")),
		StormWalkMult:      float32(viper.GetFloat64("sim.stormWalkMult")),
		PushStrength:       float32(viper.GetFloat64("sim.pushStrength")),
		PushMinImpulse:     float32(viper.GetFloat64("sim.pushMinImpulse")),
		PushMaxImpulse:     float32(viper.GetFloat64("sim.pushMaxImpulse")),
		StuckAbandonFrames: viper.GetInt("sim.stuckAbandonFrames"),
		StuckMoveTolerance: float32(viper.GetFloat64("sim.stuckMoveTolerance")),
		MaxUnstuckNudge:    float32(viper.GetFloat64("sim.maxUnstuckNudge")),
		AllowedPenetration: float32(viper.GetFloat64("sim.allowedPenetration")),
		VerticalNudge:      float32(viper.GetFloat64("sim.verticalNudge")),
	}
}

// Workers returns the solve pool size; 0 means one per CPU.
func Workers() int {
	return viper.GetInt("scheduler.workers")
}

// FixedStep returns the simulation step length in seconds.
func FixedStep() float32 {
	hz := viper.GetFloat64("scheduler.stepHz")
	if hz <= 0 {
		hz = 60
	}
	return float32(1 / hz)
}

// LOSCacheFrames returns how many epochs a line-of-sight answer stays valid.
func LOSCacheFrames() uint64 {
	return viper.GetUint64("scheduler.losCacheFrames")
}

// CellSize returns the broad-phase grid cell edge length.
func CellSize() float32 {
	return float32(viper.GetFloat64("scheduler.cellSize"))
}

// LogLevel parses the configured log level, defaulting to info.
func LogLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(viper.GetString("logLevel")))
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
