// Package fakeapi is an in-memory implementation of the tagging backend used
// by tests and local demos.
package fakeapi

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ariyeh/bagtag/pkg/models"
)

var (
	errBagNotFound = errors.New("bag not found")
	errTagNotFound = errors.New("tag not found")
)

// Store holds bags, tags and authentication records keyed by id.
type Store struct {
	mu      sync.Mutex
	limit   int
	nextBag int64
	nextTag int64
	nextEnt int64
	bags    map[int64]models.BagRecord
	tags    map[int64]models.Tag
	byCode  map[string]int64
	entrupy map[int64]models.EntrupyRecord
	now     func() time.Time
}

// NewStore returns an empty store. A positive limit keeps only that many
// bags, dropping the oldest along with its tags and authentication record.
func NewStore(limit int) *Store {
	return &Store{
		limit:   limit,
		nextBag: 1,
		nextTag: 1,
		nextEnt: 1,
		bags:    make(map[int64]models.BagRecord),
		tags:    make(map[int64]models.Tag),
		byCode:  make(map[string]int64),
		entrupy: make(map[int64]models.EntrupyRecord),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetNextBagID makes the next created bag receive id.
func (s *Store) SetNextBagID(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextBag = id
}

// CreateBag stores a bag and assigns the tag code to it, rebinding an
// existing tag with the same code.
func (s *Store) CreateBag(req models.BagCreateRequest) models.BagWithTag {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	bag := models.BagRecord{
		ID:            models.Ptr(s.nextBag),
		ExternalBagID: req.ExternalBagID,
		DisplayName:   models.Ptr(req.DisplayName),
		Brand:         models.Ptr(req.Brand),
		Model:         req.Model,
		Style:         req.Style,
		Color:         req.Color,
		Material:      req.Material,
		CreatedAt:     &now,
		UpdatedAt:     &now,
	}
	s.bags[s.nextBag] = bag
	s.nextBag++

	var tag models.Tag
	if id, ok := s.byCode[req.TagCode]; ok {
		tag = s.tags[id]
		tag.BagID = bag.ID
		tag.Status = models.Ptr(models.TagStatusAssigned)
		tag.UpdatedAt = &now
		s.tags[id] = tag
	} else {
		tag = models.Tag{
			ID:        models.Ptr(s.nextTag),
			TagCode:   models.Ptr(req.TagCode),
			BagID:     bag.ID,
			Status:    models.Ptr(models.TagStatusAssigned),
			CreatedAt: &now,
			UpdatedAt: &now,
		}
		s.tags[s.nextTag] = tag
		s.byCode[req.TagCode] = s.nextTag
		s.nextTag++
	}

	s.ensureCapacity()
	return models.BagWithTag{Bag: &bag, Tag: &tag}
}

func (s *Store) ensureCapacity() {
	if s.limit <= 0 {
		return
	}
	for len(s.bags) > s.limit {
		ids := s.bagIDs()
		oldest := ids[0]
		delete(s.bags, oldest)
		for id, t := range s.tags {
			if models.Value(t.BagID) == oldest {
				delete(s.tags, id)
				delete(s.byCode, models.Value(t.TagCode))
			}
		}
		delete(s.entrupy, oldest)
	}
}

func (s *Store) bagIDs() []int64 {
	ids := make([]int64, 0, len(s.bags))
	for id := range s.bags {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ListBags returns inventory rows newest first.
func (s *Store) ListBags() []models.InventoryRow {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.bagIDs()
	rows := make([]models.InventoryRow, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		b := s.bags[ids[i]]
		row := models.InventoryRow{
			ID:          b.ID,
			DisplayName: b.DisplayName,
			Brand:       b.Brand,
			Model:       b.Model,
			Style:       b.Style,
			Color:       b.Color,
			Material:    b.Material,
		}
		for _, t := range s.tags {
			if models.Value(t.BagID) == ids[i] {
				row.TagCode = t.TagCode
				break
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// UpsertEntrupy creates or replaces the authentication record of a bag.
func (s *Store) UpsertEntrupy(req models.EntrupyCreateRequest) (models.EntrupyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bags[req.BagID]; !ok {
		return models.EntrupyRecord{}, errBagNotFound
	}

	now := s.now()
	rec := models.EntrupyRecord{
		BagID:                models.Ptr(req.BagID),
		CustomerItemID:       models.Ptr(req.CustomerItemID),
		EntrupyItemID:        req.EntrupyItemID,
		AuthenticationStatus: req.AuthenticationStatus,
		CertificateURL:       req.CertificateURL,
		Brand:                req.Brand,
		Model:                req.Model,
		Style:                req.Style,
		Color:                req.Color,
		Material:             req.Material,
		Dimensions:           req.Dimensions,
		ConditionGrade:       req.ConditionGrade,
		CatalogRaw:           req.CatalogRaw,
		CreatedAt:            &now,
		UpdatedAt:            &now,
	}
	if existing, ok := s.entrupy[req.BagID]; ok {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	} else {
		rec.ID = models.Ptr(s.nextEnt)
		s.nextEnt++
	}
	s.entrupy[req.BagID] = rec
	return rec, nil
}

// LookupTag resolves a tag code.
func (s *Store) LookupTag(code string) (models.TagLookup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byCode[code]
	if !ok {
		return models.TagLookup{}, errTagNotFound
	}
	tag := s.tags[id]
	out := models.TagLookup{Tag: &tag}
	if tag.BagID != nil {
		if bag, ok := s.bags[*tag.BagID]; ok {
			out.Bag = &bag
			if rec, ok := s.entrupy[*bag.ID]; ok {
				out.Entrupy = &rec
			}
		}
	}
	return out, nil
}
