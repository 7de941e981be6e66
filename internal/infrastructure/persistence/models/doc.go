// Package models contains the document shapes persisted in the document store.
// These models are separate from domain entities to keep the domain layer free
// of serialization concerns.
//
// Key Principles:
// 1. Domain entities carry no storage tags
// 2. Document models carry JSON field names and query keys
// 3. Mappers convert between domain entities and document models
// 4. Repositories encode document models into docstore.Fields
//
// Structure:
// - base.go: fields shared by every document (id, timestamps, version)
// - catalog.go: products
// - sales.go: sale records
// - financing.go: hire-purchase agreements
package models
