// Package manager orchestrates a shared listener and the per-user sources
// of a conference-style scene.
//
// Users move through absent, joined, streaming and muted states. Every
// render block pulls one block from each streaming user's capture stream,
// feeds the activity analysers and mixes the result through a single
// spatializer into the output sink. Update advances pose interpolation and
// activity detection once per tick.
package manager
