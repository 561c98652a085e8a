package importer

import "fmt"

// TreeID identifies a tree known to the host. Trees read from a CSV file
// carry 0 until a plan matches them to an existing tree.
type TreeID = int32

// Tree is one row of the tree register.
type Tree struct {
	ID           TreeID  `json:"id,omitempty"`
	Area         string  `json:"area"`
	Street       string  `json:"street"`
	Number       string  `json:"number"`
	Species      string  `json:"species,omitempty"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	PlantingYear int32   `json:"plantingYear"`
}

// String returns a one-line description such as
// "Mürwik, Osterallee 12 (Acer platanoides, 2004)".
func (t *Tree) String() string {
	species := t.Species
	if species == "" {
		species = "unknown species"
	}
	return fmt.Sprintf("%s, %s %s (%s, %d)", t.Area, t.Street, t.Number, species, t.PlantingYear)
}

// samePosition reports whether two trees stand at the same coordinates.
// Both sides come out of the same conversion, so exact comparison is
// intended.
func samePosition(a, b *Tree) bool {
	return a.Latitude == b.Latitude && a.Longitude == b.Longitude
}
