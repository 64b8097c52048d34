// Package viz draws field data in the terminal and to image files.
//
//   - [LiveDisplay]: bubbletea view of Ez that the engine feeds during a run
//   - [Canvas]: braille raster used by the live view
//   - [PlotSeries], [PlotOverlay]: asciigraph plots for probe and spectrum data
//   - [RenderPNG], [SavePNG]: go-chart line charts
//
// # Key Bindings
//
//	Space - Freeze/unfreeze the field plot
//	Q     - Quit the view and cancel the run
package viz
