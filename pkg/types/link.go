package types

import (
	"fmt"
	"time"
)

// Ref addresses one record.
type Ref struct {
	Kind Kind   `json:"kind" yaml:"kind"`
	ID   string `json:"id" yaml:"id"`
}

// R is shorthand for building a Ref.
func R(k Kind, id string) Ref { return Ref{Kind: k, ID: id} }

func (r Ref) String() string { return fmt.Sprintf("%s/%s", r.Kind, r.ID) }

// Link is one undirected edge of the link relation, in the orientation it
// was created with.
type Link struct {
	From      Ref
	To        Ref
	CreatedAt time.Time
}
