package mayaref

import (
	"path"
	"strings"
)

// SceneMap maps scene paths to the references found in them. Scenes keep
// insertion order, and references keep first-seen order without duplicates.
type SceneMap struct {
	order []string
	refs  map[string][]string
	seen  map[string]map[string]struct{}
}

// Pair is one scene/reference association.
type Pair struct {
	Scene     string
	Reference string
}

// NewSceneMap returns an empty map.
func NewSceneMap() *SceneMap {
	return &SceneMap{
		refs: make(map[string][]string),
		seen: make(map[string]map[string]struct{}),
	}
}

// AddScene registers scene with no references. Re-adding is a no-op.
func (m *SceneMap) AddScene(scene string) {
	if _, ok := m.refs[scene]; ok {
		return
	}
	m.order = append(m.order, scene)
	m.refs[scene] = []string{}
	m.seen[scene] = make(map[string]struct{})
}

// AddReference appends ref to scene, registering the scene if needed. It
// reports whether ref was new for that scene.
func (m *SceneMap) AddReference(scene, ref string) bool {
	m.AddScene(scene)
	if _, dup := m.seen[scene][ref]; dup {
		return false
	}
	m.seen[scene][ref] = struct{}{}
	m.refs[scene] = append(m.refs[scene], ref)
	return true
}

// Len returns the number of scenes.
func (m *SceneMap) Len() int { return len(m.order) }

// Scenes returns scene paths in insertion order.
func (m *SceneMap) Scenes() []string {
	return append([]string(nil), m.order...)
}

// References returns the references of scene in first-seen order.
func (m *SceneMap) References(scene string) []string {
	return append([]string(nil), m.refs[scene]...)
}

// Has reports whether scene is present.
func (m *SceneMap) Has(scene string) bool {
	_, ok := m.refs[scene]
	return ok
}

// Pairs flattens the map into scene/reference rows.
func (m *SceneMap) Pairs() []Pair {
	var out []Pair
	for _, scene := range m.order {
		for _, ref := range m.refs[scene] {
			out = append(out, Pair{Scene: scene, Reference: ref})
		}
	}
	return out
}

// Filter returns scenes whose base name contains keyword. An empty keyword
// matches everything.
func (m *SceneMap) Filter(keyword string) []string {
	if keyword == "" {
		return m.Scenes()
	}
	var out []string
	for _, scene := range m.order {
		if strings.Contains(baseName(scene), keyword) {
			out = append(out, scene)
		}
	}
	return out
}

// baseName returns the last element of p, accepting either separator since
// scene files written on Windows store backslash paths.
func baseName(p string) string {
	return path.Base(strings.ReplaceAll(p, `\`, "/"))
}

func extension(p string) string {
	return path.Ext(baseName(p))
}
