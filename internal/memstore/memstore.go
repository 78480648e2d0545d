// Package memstore is a JSON-persistable in-memory reference
// implementation of store.Queryable, generalized from the teacher's
// internal/graph.ProbabilisticAdjacencyListGraph adjacency-list
// structure (parent/child maps keyed by node ID) into the ECL
// concept/relationship/description/refset shape. It is what the test
// suite, the CLI, and the HTTP server build against when no external
// terminology store is wired in.
package memstore

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/snomedql/ecl/internal/ident"
	"github.com/snomedql/ecl/internal/store"
)

// Concept is one node's full data, the unit the JSON file format
// round-trips (see WriteJSON/ReadJSON).
type Concept struct {
	ID            ident.ConceptID            `json:"id"`
	Parents       []ident.ConceptID          `json:"parents,omitempty"`
	Active        bool                       `json:"active"`
	Primitive     bool                       `json:"primitive"`
	Module        ident.ConceptID            `json:"module,omitempty"`
	EffectiveTime int                        `json:"effectiveTime,omitempty"`
	Attributes    []store.Relationship       `json:"attributes,omitempty"`
	Concretes     []store.ConcreteRelationship `json:"concretes,omitempty"`
	Descriptions  []store.Description        `json:"descriptions,omitempty"`
	Associations  []store.HistoricalAssociation `json:"associations,omitempty"`
}

// Store is the in-memory graph. It satisfies store.Queryable by
// embedding store.DefaultStore and overriding every method backed by
// real data.
type Store struct {
	store.DefaultStore

	concepts map[ident.ConceptID]*Concept
	children map[ident.ConceptID][]ident.ConceptID
	inbound  map[ident.ConceptID][]store.Relationship
	refsets  map[ident.ConceptID][]ident.ConceptID
	descLangs map[ident.ConceptID][]store.LanguageRefsetMembership
}

// New returns an empty store, ready for AddConcept calls.
func New() *Store {
	return &Store{
		concepts:  make(map[ident.ConceptID]*Concept),
		children:  make(map[ident.ConceptID][]ident.ConceptID),
		inbound:   make(map[ident.ConceptID][]store.Relationship),
		refsets:   make(map[ident.ConceptID][]ident.ConceptID),
		descLangs: make(map[ident.ConceptID][]store.LanguageRefsetMembership),
	}
}

// AddConcept inserts or replaces c and reindexes its parent/inbound
// edges. Call it in any order; indexes are rebuilt incrementally.
func (s *Store) AddConcept(c Concept) {
	s.concepts[c.ID] = &c
	for _, p := range c.Parents {
		s.children[p] = appendUnique(s.children[p], c.ID)
	}
	for _, a := range c.Attributes {
		s.inbound[a.DestinationID] = append(s.inbound[a.DestinationID], store.Relationship{
			TypeID: a.TypeID, DestinationID: c.ID, Group: a.Group,
		})
	}
}

// AddRefsetMember records that memberID belongs to refsetID.
func (s *Store) AddRefsetMember(refsetID, memberID ident.ConceptID) {
	s.refsets[refsetID] = appendUnique(s.refsets[refsetID], memberID)
}

// AddDescriptionLanguageRefset records a description's dialect
// membership and acceptability.
func (s *Store) AddDescriptionLanguageRefset(descriptionID ident.ConceptID, m store.LanguageRefsetMembership) {
	s.descLangs[descriptionID] = append(s.descLangs[descriptionID], m)
}

func appendUnique(xs []ident.ConceptID, x ident.ConceptID) []ident.ConceptID {
	for _, y := range xs {
		if y == x {
			return xs
		}
	}
	return append(xs, x)
}

func (s *Store) GetChildren(id ident.ConceptID) []ident.ConceptID { return s.children[id] }

func (s *Store) GetParents(id ident.ConceptID) []ident.ConceptID {
	if c, ok := s.concepts[id]; ok {
		return c.Parents
	}
	return nil
}

func (s *Store) HasConcept(id ident.ConceptID) bool {
	_, ok := s.concepts[id]
	return ok
}

func (s *Store) AllConcepts() []ident.ConceptID {
	out := make([]ident.ConceptID, 0, len(s.concepts))
	for id := range s.concepts {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *Store) GetRefsetMembers(refsetID ident.ConceptID) []ident.ConceptID {
	return s.refsets[refsetID]
}

func (s *Store) GetAttributes(id ident.ConceptID) []store.Relationship {
	if c, ok := s.concepts[id]; ok {
		return c.Attributes
	}
	return nil
}

func (s *Store) GetInboundRelationships(id ident.ConceptID) []store.Relationship {
	return s.inbound[id]
}

func (s *Store) GetConcreteValues(id ident.ConceptID) []store.ConcreteRelationship {
	if c, ok := s.concepts[id]; ok {
		return c.Concretes
	}
	return nil
}

func (s *Store) GetDescriptions(id ident.ConceptID) []store.Description {
	if c, ok := s.concepts[id]; ok {
		return c.Descriptions
	}
	return nil
}

func (s *Store) GetDescriptionLanguageRefsets(descriptionID ident.ConceptID) []store.LanguageRefsetMembership {
	return s.descLangs[descriptionID]
}

func (s *Store) IsConceptActive(id ident.ConceptID) bool {
	if c, ok := s.concepts[id]; ok {
		return c.Active
	}
	return true
}

func (s *Store) IsConceptPrimitive(id ident.ConceptID) bool {
	if c, ok := s.concepts[id]; ok {
		return c.Primitive
	}
	return false
}

func (s *Store) GetConceptModule(id ident.ConceptID) ident.ConceptID {
	if c, ok := s.concepts[id]; ok {
		return c.Module
	}
	return 0
}

func (s *Store) GetConceptEffectiveTime(id ident.ConceptID) int {
	if c, ok := s.concepts[id]; ok {
		return c.EffectiveTime
	}
	return 0
}

func (s *Store) GetSemanticTag(id ident.ConceptID) string {
	if c, ok := s.concepts[id]; ok {
		return store.SemanticTagFromDescriptions(c.Descriptions)
	}
	return ""
}

func (s *Store) GetHistoricalAssociations(id ident.ConceptID) []store.HistoricalAssociation {
	if c, ok := s.concepts[id]; ok {
		return c.Associations
	}
	return nil
}

// GetHistoricalAssociationsByType uses the SUPPLEMENTED default
// delegation behavior (store.FilterByType) rather than duplicating the
// association list under a second index.
func (s *Store) GetHistoricalAssociationsByType(id ident.ConceptID, kind store.AssociationKind) []store.HistoricalAssociation {
	return store.FilterByType(s.GetHistoricalAssociations(id), kind)
}

func (s *Store) ResolveAlternateIdentifier(scheme, identifier string) (ident.ConceptID, bool) {
	id, err := parseDecimalID(identifier)
	if err != nil {
		return 0, false
	}
	if !s.HasConcept(id) {
		return 0, false
	}
	return id, true
}

// document is the on-disk JSON shape, generalizing the teacher's
// serialization.WriteJSON/ReadJSON graph envelope.
type document struct {
	Concepts       []Concept                               `json:"concepts"`
	RefsetMembers  map[string][]ident.ConceptID             `json:"refsetMembers,omitempty"`
	DescriptionLangs map[string][]store.LanguageRefsetMembership `json:"descriptionLangs,omitempty"`
}

// WriteJSON serializes the full store (concepts, refset membership,
// and dialect membership) to w.
func (s *Store) WriteJSON(w io.Writer) error {
	doc := document{
		RefsetMembers:    make(map[string][]ident.ConceptID, len(s.refsets)),
		DescriptionLangs: make(map[string][]store.LanguageRefsetMembership, len(s.descLangs)),
	}
	for _, id := range s.AllConcepts() {
		doc.Concepts = append(doc.Concepts, *s.concepts[id])
	}
	for id, members := range s.refsets {
		doc.RefsetMembers[id.String()] = members
	}
	for id, langs := range s.descLangs {
		doc.DescriptionLangs[id.String()] = langs
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// ReadJSON rebuilds a Store from a document previously produced by
// WriteJSON.
func ReadJSON(r io.Reader) (*Store, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	s := New()
	for _, c := range doc.Concepts {
		s.AddConcept(c)
	}
	for key, members := range doc.RefsetMembers {
		id, err := parseDecimalID(key)
		if err != nil {
			continue
		}
		for _, m := range members {
			s.AddRefsetMember(id, m)
		}
	}
	for key, langs := range doc.DescriptionLangs {
		id, err := parseDecimalID(key)
		if err != nil {
			continue
		}
		for _, l := range langs {
			s.AddDescriptionLanguageRefset(id, l)
		}
	}
	return s, nil
}

func parseDecimalID(s string) (ident.ConceptID, error) {
	var n uint64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, &store.Error{Kind: "InvalidConceptId", Message: "not a decimal id: " + s}
		}
		n = n*10 + uint64(r-'0')
	}
	return ident.ConceptID(n), nil
}
