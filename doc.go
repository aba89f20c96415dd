// Package miniusers implements a small authenticated user-directory
// service: stateless signed session tokens over a keyed credential
// store, CRUD operations with email uniqueness, and the REST surface
// that exposes them. The client package holds the consuming side, an
// optimistically updated session cache that reconciles against this
// API.
package miniusers
