// Package pointer handles the trackball side of the keyboard.
//
// AutoLayer switches the pointer layer on when the ball moves and back off
// after a quiet period. Device holds the trackball settings that keys can
// change (DPI steps, sniping, drag-scroll) and turns raw motion samples into
// pointer or wheel movement.
package pointer
