// Package model holds the result types pixelz commands render and the
// structured error kinds every package reports.
package model
