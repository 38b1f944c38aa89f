package collision

// Layer partitions bodies into interaction groups.
type Layer uint8

const (
	LayerStatic Layer = iota
	LayerHeightField
	LayerActor
	LayerDynamic
	LayerProjectile
	LayerWater
	LayerSensor

	layerCount
)

// Mask is a bit set of layers a query interacts with.
type Mask uint32

const (
	MaskNone Mask = 0
	MaskAll  Mask = 1<<layerCount - 1

	// MaskWorld covers everything solid an actor can run into.
	MaskWorld = Mask(1<<LayerStatic | 1<<LayerHeightField | 1<<LayerDynamic)
	// MaskMovement is the default mask for actor movement sweeps.
	MaskMovement = MaskWorld | Mask(1<<LayerActor)
	// MaskUnstuck excludes actors and projectiles from penetration probes.
	MaskUnstuck = MaskWorld
)

func (l Layer) Mask() Mask {
	return 1 << l
}

func (m Mask) Has(l Layer) bool {
	return m&(1<<l) != 0
}

func (l Layer) String() string {
	switch l {
	case LayerStatic:
		return "static"
	case LayerHeightField:
		return "heightfield"
	case LayerActor:
		return "actor"
	case LayerDynamic:
		return "dynamic"
	case LayerProjectile:
		return "projectile"
	case LayerWater:
		return "water"
	case LayerSensor:
		return "sensor"
	}
	return "unknown"
}
