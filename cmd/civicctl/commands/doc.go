// Package commands defines the civicctl CLI, an operator tool for checking
// photos against the same verification rules the server applies.
//
// Commands
//
//   - exif       Print the GPS metadata extracted from a photo
//   - distance   Great-circle distance between two coordinates
//   - verify     Run solution verification against local files or URLs
//   - preview    Advisory check of a photo against a current location
//
// Photos may be local paths, file:// URLs or http(s) URLs. Output is JSON.
package commands
