// Package connectedloader provides batch loaders that share their caches.
//
// An entity often has more than one key that can load it, e.g. a user is loaded by id or by email.
// Loaders created with the same Storage are connected: when a value is loaded through one of them,
// it is stored in the caches of all the others under their own keys, and ClearValue removes it
// from all of them.
//
//	storage := connectedloader.NewStorage[*User]()
//	byID := connectedloader.New(storage, fetchUsersByID, func(u *User) int64 { return u.ID })
//	byEmail := connectedloader.New(storage, fetchUsersByEmail, func(u *User) string { return u.Email })
//
// The batching and deduplication are done by package batchloader.
package connectedloader
