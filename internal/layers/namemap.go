package layers

// MergeNameMap builds a layer's name map.
//
// The layer's exposes go in first, then its requires fill in names not yet
// present, then the remap is laid on top (exposes section, then requires
// section) and overwrites on collision.
func MergeNameMap(exposes, requires CapabilityMap, remap *Remap) CapabilityMap {
	out := make(CapabilityMap, len(Capabilities))
	fill(out, exposes, false)
	fill(out, requires, false)
	if remap != nil {
		fill(out, remap.Exposes, true)
		fill(out, remap.Requires, true)
	}
	return out
}

func fill(dst, src CapabilityMap, overwrite bool) {
	for c, names := range src {
		bucket, ok := dst[c]
		if !ok {
			bucket = make(NameMap, len(names))
			dst[c] = bucket
		}
		for local, global := range names {
			if _, exists := bucket[local]; exists && !overwrite {
				continue
			}
			bucket[local] = global
		}
	}
}
