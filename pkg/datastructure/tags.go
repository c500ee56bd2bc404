package datastructure

import (
	"sort"
	"strings"
	"sync"
)

type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// TagsCollection is an ordered list of key/value pairs with unique keys.
type TagsCollection []Tag

func NewTagsCollection(kv ...string) TagsCollection {
	tags := make(TagsCollection, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		tags = tags.Set(kv[i], kv[i+1])
	}
	return tags
}

func TagsFromMap(m map[string]string) TagsCollection {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	tags := make(TagsCollection, 0, len(keys))
	for _, k := range keys {
		tags = append(tags, Tag{Key: k, Value: m[k]})
	}
	return tags
}

func (t TagsCollection) Find(key string) string {
	for _, tag := range t {
		if tag.Key == key {
			return tag.Value
		}
	}
	return ""
}

func (t TagsCollection) Has(key string) bool {
	for _, tag := range t {
		if tag.Key == key {
			return true
		}
	}
	return false
}

// Set returns a copy of t with key set to value, appended when the key is new.
func (t TagsCollection) Set(key, value string) TagsCollection {
	out := make(TagsCollection, len(t), len(t)+1)
	copy(out, t)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, Tag{Key: key, Value: value})
}

func (t TagsCollection) Map() map[string]string {
	m := make(map[string]string, len(t))
	for _, tag := range t {
		m[tag.Key] = tag.Value
	}
	return m
}

// key is the interning key, order insensitive.
func (t TagsCollection) key() string {
	sorted := make(TagsCollection, len(t))
	copy(sorted, t)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Key < sorted[j].Key
	})
	var sb strings.Builder
	for _, tag := range sorted {
		sb.WriteString(tag.Key)
		sb.WriteByte(0)
		sb.WriteString(tag.Value)
		sb.WriteByte(0)
	}
	return sb.String()
}

// EmptyTagsID is the id of the empty collection in every TagsIndex.
const EmptyTagsID uint32 = 0

// TagsIndex interns tag collections so identical sets share one id.
// Safe for concurrent use, resolution adds marker tag sets at query time.
type TagsIndex struct {
	mu   sync.RWMutex
	ids  map[string]uint32
	sets []TagsCollection
}

func NewTagsIndex() *TagsIndex {
	idx := &TagsIndex{
		ids:  make(map[string]uint32),
		sets: make([]TagsCollection, 0, 64),
	}
	idx.Add(TagsCollection{})
	return idx
}

func (idx *TagsIndex) Add(tags TagsCollection) uint32 {
	k := tags.key()

	idx.mu.RLock()
	id, ok := idx.ids[k]
	idx.mu.RUnlock()
	if ok {
		return id
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if id, ok := idx.ids[k]; ok {
		return id
	}
	stored := make(TagsCollection, len(tags))
	copy(stored, tags)
	id = uint32(len(idx.sets))
	idx.sets = append(idx.sets, stored)
	idx.ids[k] = id
	return id
}

// Get returns the collection for id, the empty collection for unknown ids.
func (idx *TagsIndex) Get(id uint32) TagsCollection {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if int(id) >= len(idx.sets) {
		return TagsCollection{}
	}
	return idx.sets[id]
}

func (idx *TagsIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.sets)
}
