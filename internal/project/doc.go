// Package project reads and writes renderer project files (.cardconjurer).
//
// A project is JSON: either a bare list of saved cards or an object whose
// "cards" key holds that list. Each card has a "key" and a "data" object with
// the renderer state (text fields, frames, art placement). Fields cardcap
// does not touch are preserved as loaded.
package project
