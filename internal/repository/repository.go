// Package repository contains the data access layer abstractions. Handlers
// and services depend only on these interfaces; implementations live in
// subpackages (postgres, memory) so the backing store can be swapped without
// touching business logic.
package repository

import "errors"

// ErrNotFound is returned by every implementation when the requested entity
// does not exist. Services translate it into their own sentinels.
var ErrNotFound = errors.New("entity not found")

// ErrConflict is returned when an insert violates a uniqueness constraint,
// such as a duplicate user email.
var ErrConflict = errors.New("entity already exists")
