// Package lands generates full-art basic land projects.
//
// For each requested basic land type the generator searches the external
// card search for full-art printings, filters and selects them like the
// capture reconciler does, prepares their art through the art pipeline and
// clones the matching template card with the print's art, placement and
// collector info. The result is a project file the renderer can load.
package lands
