package common

// Unique returns the distinct elements of s in order of first appearance.
func Unique[S ~[]E, E comparable](s S) S {
	seen := make(map[E]struct{}, len(s))
	out := make(S, 0, len(s))

	for _, v := range s {
		if _, ok := seen[v]; ok {
			continue
		}

		seen[v] = struct{}{}
		out = append(out, v)
	}

	return out
}

// Remove returns s without any occurrence of v, preserving order.
func Remove[S ~[]E, E comparable](s S, v E) S {
	out := make(S, 0, len(s))

	for _, e := range s {
		if e != v {
			out = append(out, e)
		}
	}

	return out
}

// Clone returns a copy of s; nil stays nil.
func Clone[S ~[]E, E any](s S) S {
	if s == nil {
		return nil
	}

	return append(make(S, 0, len(s)), s...)
}
