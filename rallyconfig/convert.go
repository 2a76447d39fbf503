package rallyconfig

import (
	"github.com/rallycore/rallycore/classify"
	"github.com/rallycore/rallycore/detectfilter"
	"github.com/rallycore/rallycore/kalman"
	"github.com/rallycore/rallycore/physics"
	"github.com/rallycore/rallycore/rally"
	"github.com/rallycore/rallycore/segment"
	"github.com/rallycore/rallycore/tracker"
)

// DetectFilterConfig converts to the detectfilter package's own Config.
func (c *Config) DetectFilterConfig() detectfilter.Config {
	d := c.Detection
	return detectfilter.Config{
		MinConfidence: float32(d.MinConf),
		MinArea:       d.MinArea,
		MaxArea:       d.MaxArea,
		StaticIoU:     d.StaticIoU,
		StaticEps:     d.StaticEps,
		NMSIoU:        d.NMSIoU,
	}
}

// TrackerConfig converts to the tracker package's own Config.
func (c *Config) TrackerConfig() tracker.Config {
	t := c.Tracker
	return tracker.Config{
		Noise: kalman.NoiseModel{
			QPos:  t.QPos,
			QVel:  t.QVel,
			RMeas: t.RMeas,
		},
		InitialUncertainty:      t.InitialUncertainty,
		GateThreshold:           t.GateThreshold,
		BirthConf:               float32(t.BirthConf),
		MaxMisses:               uint32(t.MaxMisses),
		MaxAgeWithoutProjectile: uint32(t.MaxAge),
		MinConfirm:              t.MinConfirm,
		HistoryCap:              t.HistoryCap,
		MaxDt:                   t.MaxDt,
	}
}

// PhysicsConfig converts to the physics package's own Config.
func (c *Config) PhysicsConfig() physics.Config {
	p := c.Physics
	return physics.Config{
		MinWindow:        p.MinWindow,
		R2Min:            p.R2Min,
		ExpectedCurvSign: physics.CurvatureSign(p.ExpectedCurvSign),
		AMin:             p.AMin,
		AMax:             p.AMax,
		MaxJump:          p.MaxJump,
		VelocityCVMax:    p.VelocityCVMax,
	}
}

// ClassifierConfig converts to the classify package's own Config.
func (c *Config) ClassifierConfig() classify.Config {
	cl := c.Classifier
	return classify.Config{
		StaticPath:      cl.StaticPath,
		StaticMinSpan:   cl.StaticMinSpan,
		AirborneMinSpan: cl.AirborneMinSpan,
		RollRatio:       cl.RollRatio,
		RollSpeedMin:    cl.RollSpeedMin,
	}
}

// RallyConfig converts to the rally package's own Config.
func (c *Config) RallyConfig() rally.Config {
	r := c.Rally
	return rally.Config{
		WStart:       r.WStart,
		WEnd:         r.WEnd,
		WRejoin:      r.WRejoin,
		StartRatio:   r.StartRatio,
		EndRatio:     r.EndRatio,
		CooldownIdle: r.CooldownIdle,
	}
}

// SegmentConfig converts to the segment package's own Config.
func (c *Config) SegmentConfig() segment.Config {
	s := c.Segment
	return segment.Config{
		PrePad:      s.PrePad,
		PostPad:     s.PostPad,
		MergeGap:    s.MergeGap,
		MinDuration: s.MinDuration,
	}
}
