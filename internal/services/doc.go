// Package services carries cross-cutting helpers shared by pipeline phases:
// a sentinel error taxonomy used to classify failures into queue statuses,
// and context annotations that scope log output to one item and phase.
package services
