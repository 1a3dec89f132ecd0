// Package viz renders decay trajectories.
//
//   - [Render] and [RenderComparison] draw line charts on the terminal
//     with asciigraph.
//   - [SaveImage] writes a time-vs-state plot with gonum/plot; the file
//     format follows the extension (png, svg, pdf, ...).
package viz
