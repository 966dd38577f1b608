package features

import (
	"sort"
	"sync"

	"github.com/vanderheijden86/trackfeat/pkg/model"
)

const storeShards = 32

// FeatureInfo describes one declared feature for reporting layers.
type FeatureInfo struct {
	Key       string          `json:"key"`
	Analyzer  string          `json:"analyzer"`
	Name      string          `json:"name"`
	ShortName string          `json:"short_name"`
	Dimension model.Dimension `json:"dimension"`
	IsInt     bool            `json:"is_int"`
}

// Store is the shared table of per-track feature values.
//
// It is the only mutable state analyzers share. Tracks are spread over
// shards by ID, each shard guarded by its own lock, so workers writing
// different tracks rarely contend.
type Store struct {
	shards [storeShards]storeShard

	declMu sync.RWMutex
	decls  []FeatureInfo
	byKey  map[string]int
}

type storeShard struct {
	mu     sync.RWMutex
	tracks map[int]Values
}

// NewStore returns an empty store.
func NewStore() *Store {
	s := &Store{byKey: make(map[string]int)}
	for i := range s.shards {
		s.shards[i].tracks = make(map[int]Values)
	}
	return s
}

func (s *Store) shard(trackID int) *storeShard {
	i := trackID % storeShards
	if i < 0 {
		i += storeShards
	}
	return &s.shards[i]
}

// PutTrackFeature stores value under (trackID, key). NaN and infinities are
// stored as Undefined.
func (s *Store) PutTrackFeature(trackID int, key string, value float64) {
	s.PutTrackValue(trackID, key, Defined(value))
}

// PutTrackValue stores a possibly undefined value under (trackID, key).
func (s *Store) PutTrackValue(trackID int, key string, value Value) {
	sh := s.shard(trackID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	vals, ok := sh.tracks[trackID]
	if !ok {
		vals = make(Values)
		sh.tracks[trackID] = vals
	}
	vals[key] = value
}

// PutTrackValues stores several values for one track under a single lock.
func (s *Store) PutTrackValues(trackID int, values Values) {
	sh := s.shard(trackID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	vals, ok := sh.tracks[trackID]
	if !ok {
		vals = make(Values, len(values))
		sh.tracks[trackID] = vals
	}
	for k, v := range values {
		vals[k] = v
	}
}

// TrackFeature returns the value stored under (trackID, key). The boolean
// is false when nothing was ever stored there; a stored Undefined returns
// true.
func (s *Store) TrackFeature(trackID int, key string) (Value, bool) {
	sh := s.shard(trackID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	v, ok := sh.tracks[trackID][key]
	return v, ok
}

// TrackFeatures returns a copy of all values stored for a track.
func (s *Store) TrackFeatures(trackID int) Values {
	sh := s.shard(trackID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	vals, ok := sh.tracks[trackID]
	if !ok {
		return nil
	}
	out := make(Values, len(vals))
	for k, v := range vals {
		out[k] = v
	}
	return out
}

// RemoveTrack drops every value stored for a track.
func (s *Store) RemoveTrack(trackID int) {
	sh := s.shard(trackID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	delete(sh.tracks, trackID)
}

// TrackIDs returns the IDs of all tracks with at least one value, sorted.
func (s *Store) TrackIDs() []int {
	var ids []int
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		for id := range sh.tracks {
			ids = append(ids, id)
		}
		sh.mu.RUnlock()
	}
	sort.Ints(ids)
	return ids
}

// Len returns the number of tracks with at least one value.
func (s *Store) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		n += len(sh.tracks)
		sh.mu.RUnlock()
	}
	return n
}

// Snapshot returns a deep copy of the whole table.
func (s *Store) Snapshot() map[int]Values {
	out := make(map[int]Values)
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		for id, vals := range sh.tracks {
			cp := make(Values, len(vals))
			for k, v := range vals {
				cp[k] = v
			}
			out[id] = cp
		}
		sh.mu.RUnlock()
	}
	return out
}

// DeclareTrackFeatures records the metadata of every feature an analyzer
// produces. Declaring the same feature key again replaces its metadata.
func (s *Store) DeclareTrackFeatures(a FeatureAnalyzer) {
	names := a.FeatureNames()
	shorts := a.FeatureShortNames()
	dims := a.FeatureDimensions()
	ints := a.IsIntFeature()

	s.declMu.Lock()
	defer s.declMu.Unlock()
	for _, key := range a.Features() {
		info := FeatureInfo{
			Key:       key,
			Analyzer:  a.Key(),
			Name:      names[key],
			ShortName: shorts[key],
			Dimension: dims[key],
			IsInt:     ints[key],
		}
		if i, ok := s.byKey[key]; ok {
			s.decls[i] = info
			continue
		}
		s.byKey[key] = len(s.decls)
		s.decls = append(s.decls, info)
	}
}

// Declarations returns declared features in declaration order.
func (s *Store) Declarations() []FeatureInfo {
	s.declMu.RLock()
	defer s.declMu.RUnlock()
	out := make([]FeatureInfo, len(s.decls))
	copy(out, s.decls)
	return out
}

// Declaration returns the metadata for one feature key.
func (s *Store) Declaration(key string) (FeatureInfo, bool) {
	s.declMu.RLock()
	defer s.declMu.RUnlock()
	i, ok := s.byKey[key]
	if !ok {
		return FeatureInfo{}, false
	}
	return s.decls[i], true
}
