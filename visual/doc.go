// Package visual animates register values on a drawing surface.
//
// Every visible register lane is an Element. The layout engine places
// elements in rows, one main row per displayed register plus any staging
// rows above (LOCATION_TOP) or below (LOCATION_BOTTOM) it requested by an
// instruction. The sequencer moves elements between slots in groups: all
// moves of a group start together, and the next group starts only when
// every move of the current group has arrived.
//
// The Visualizer is driven once per frame by its host:
//
//	vis.Update(dt, speed)
//	vis.Show(surface, display, cpu)
//	vis.MoveAnimationSequence()
//	vis.MoveAnimationFinish()
package visual
