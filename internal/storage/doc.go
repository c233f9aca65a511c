// Package storage abstracts the destination for art assets and captured card
// images.
//
// Two interchangeable backends implement Store: FSStore writes under a local
// directory, HTTPStore talks to an image server with HEAD/GET/PUT and an
// optional shared-secret header. Keys are slash-separated paths relative to
// the store root.
package storage
