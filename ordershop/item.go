package ordershop

import (
	"errors"
)

var (
	// ErrInsufficientStock is returned when removing more stock than an Item holds.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrNegativeQuantity is returned when a stock adjustment is called with a negative quantity.
	ErrNegativeQuantity = errors.New("quantity must not be negative")

	// ErrUnknownItemKind is returned when an Item carries a kind outside the closed set.
	ErrUnknownItemKind = errors.New("unknown item kind")
)

// ItemKind discriminates the closed set of sellable item variants.
// It replaces the single-table inheritance hierarchy of a classic ORM mapping
// with a tag that selects which detail struct is meaningful.
type ItemKind string

const (
	ItemKindBook  ItemKind = "book"
	ItemKindAlbum ItemKind = "album"
	ItemKindMovie ItemKind = "movie"
)

// IsValid reports whether the kind is one of the closed set.
func (k ItemKind) IsValid() bool {
	switch k {
	case ItemKindBook, ItemKindAlbum, ItemKindMovie:
		return true
	default:
		return false
	}
}

// BookDetails carries the fields specific to ItemKindBook.
type BookDetails struct {
	Author string
	ISBN   string
}

// AlbumDetails carries the fields specific to ItemKindAlbum.
type AlbumDetails struct {
	Artist string
	Label  string
}

// MovieDetails carries the fields specific to ItemKindMovie.
type MovieDetails struct {
	Director string
	Actor    string
}

// Item is a sellable product. Exactly one of the detail structs is meaningful,
// selected by Kind. StockQuantity is mutated only through AddStock/RemoveStock
// and never goes below zero.
type Item struct {
	ID            ItemIDInt64
	Kind          ItemKind
	Name          string
	Price         int64
	StockQuantity int
	Categories    []string
	Book          BookDetails
	Album         AlbumDetails
	Movie         MovieDetails
}

// BuildBookItem creates a new Item of kind book.
func BuildBookItem(name string, price int64, stockQuantity int, author string, isbn string) Item {
	return Item{
		Kind:          ItemKindBook,
		Name:          name,
		Price:         price,
		StockQuantity: stockQuantity,
		Book:          BookDetails{Author: author, ISBN: isbn},
	}
}

// BuildAlbumItem creates a new Item of kind album.
func BuildAlbumItem(name string, price int64, stockQuantity int, artist string, label string) Item {
	return Item{
		Kind:          ItemKindAlbum,
		Name:          name,
		Price:         price,
		StockQuantity: stockQuantity,
		Album:         AlbumDetails{Artist: artist, Label: label},
	}
}

// BuildMovieItem creates a new Item of kind movie.
func BuildMovieItem(name string, price int64, stockQuantity int, director string, actor string) Item {
	return Item{
		Kind:          ItemKindMovie,
		Name:          name,
		Price:         price,
		StockQuantity: stockQuantity,
		Movie:         MovieDetails{Director: director, Actor: actor},
	}
}

// AddStock increases the stock quantity by qty.
// There is no upper bound; the only rejected input is a negative qty.
func (i *Item) AddStock(qty int) error {
	if qty < 0 {
		return ErrNegativeQuantity
	}

	i.StockQuantity += qty

	return nil
}

// RemoveStock decreases the stock quantity by qty.
// It fails with ErrInsufficientStock, leaving the quantity unchanged,
// if the result would be negative.
func (i *Item) RemoveStock(qty int) error {
	if qty < 0 {
		return ErrNegativeQuantity
	}

	restStock := i.StockQuantity - qty
	if restStock < 0 {
		return ErrInsufficientStock
	}

	i.StockQuantity = restStock

	return nil
}
