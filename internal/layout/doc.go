// Package layout turns a template plus metadata into pixel geometry.
//
// The engine produces a Plan: canvas size, source placement, the banner
// band, and every text run, divider segment, and logo box in paint order.
// Plans are pure functions of their inputs so re-rendering a file is
// reproducible down to the coordinate.
//
// The banner is two columns. The left column carries identity (species
// name, capture time, location), the right carries equipment (camera,
// lens, settings). Empty fields consume no space; the band compacts to
// its content with a template-set floor.
package layout
