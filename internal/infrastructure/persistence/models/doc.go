// Package models contains the GORM persistence models for the pricing tables.
// Domain aggregates carry no ORM tags; repositories map between the two.
//
// Campaign price modifiers, rules, tiers and targets are stored as JSON
// snapshots and revalidated through the domain constructors when loaded.
package models
