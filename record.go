package piicrypt

import "strings"

// Record is an application document at the storage boundary: a mapping of
// field names to plain scalars, "ENC:"-tagged ciphertext strings, and
// "<field>_hash" digest strings. The rest of the application only ever sees
// the fully decrypted form.
type Record = map[string]any

// cloneRecord deep-copies the map structure of a record. Nested
// map[string]any values are copied recursively; leaf values are shared, which
// is safe because the codec only ever replaces leaves, never mutates them.
func cloneRecord(rec Record) Record {
	if rec == nil {
		return nil
	}
	out := make(Record, len(rec))
	for k, v := range rec {
		if nested, ok := v.(map[string]any); ok {
			out[k] = cloneRecord(nested)
		} else {
			out[k] = v
		}
	}
	return out
}

// getPath resolves a dotted path against nested map[string]any objects.
// The second return is false when any segment is absent or a non-map value
// sits where an object is expected.
func getPath(rec Record, path string) (any, bool) {
	parent, leaf, ok := resolveParent(rec, path)
	if !ok {
		return nil, false
	}
	v, present := parent[leaf]
	return v, present
}

// setPath writes a value at a dotted path. Intermediate objects are not
// created: the codec only touches paths whose containers already exist.
func setPath(rec Record, path string, value any) bool {
	parent, leaf, ok := resolveParent(rec, path)
	if !ok {
		return false
	}
	parent[leaf] = value
	return true
}

// deletePath removes the value at a dotted path, if present.
func deletePath(rec Record, path string) {
	if parent, leaf, ok := resolveParent(rec, path); ok {
		delete(parent, leaf)
	}
}

// resolveParent walks to the map containing the path's leaf segment.
func resolveParent(rec Record, path string) (map[string]any, string, bool) {
	segs := strings.Split(path, ".")
	current := rec
	for _, seg := range segs[:len(segs)-1] {
		next, present := current[seg]
		if !present {
			return nil, "", false
		}
		m, ok := next.(map[string]any)
		if !ok {
			return nil, "", false
		}
		current = m
	}
	return current, segs[len(segs)-1], true
}

// hashPathFor derives the digest attribute path for a searchable field:
// the "_hash" suffix attaches to the leaf segment, so the digest sits beside
// the ciphertext it indexes ("demographics.postcode" ->
// "demographics.postcode_hash").
func hashPathFor(path string) string {
	return path + HashFieldSuffix
}
