// Package models contains GORM persistence models for the customer dataset.
// They are kept apart from the shop domain types, which carry no ORM tags;
// ToDomain / FromDomain convert between the two.
package models
