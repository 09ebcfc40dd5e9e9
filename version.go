// Package noderun runs Node.js and npm commands on behalf of an interactive
// host without blocking it.
package noderun

// Version is the noderun release version.
var Version = "0.3.0"
