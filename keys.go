package cacheaspect

import "strings"

// BuildKey assembles a cache key:
//
//	[globalPrefix ":"] localPrefix ["_" seg1 ["_" seg2 ...]]
//
// eval is called on each expression in order. The first blank (empty or
// whitespace-only) result stops evaluation and the key keeps only the
// segments before it. globalPrefix and its ":" are left out when blank.
// Nothing is escaped.
func BuildKey(globalPrefix, localPrefix string, expressions []string, eval func(string) (string, error)) (string, error) {
	key, _, err := buildKey(globalPrefix, localPrefix, expressions, eval)
	return key, err
}

// buildKey also reports the index of the blank expression, or -1.
func buildKey(globalPrefix, localPrefix string, expressions []string, eval func(string) (string, error)) (string, int, error) {
	var sb strings.Builder
	for i, e := range expressions {
		seg, err := eval(e)
		if err != nil {
			return "", -1, err
		}
		if isBlank(seg) {
			return compose(globalPrefix, localPrefix, sb.String()), i, nil
		}
		sb.WriteByte('_')
		sb.WriteString(seg)
	}
	return compose(globalPrefix, localPrefix, sb.String()), -1, nil
}

// singleKey is the Put/Cacheable form: the value of one expression appended
// to localPrefix as-is. An empty expression adds nothing.
func singleKey(globalPrefix, localPrefix, expression string, eval func(string) (string, error)) (string, int, error) {
	if expression == "" {
		return compose(globalPrefix, localPrefix, ""), -1, nil
	}
	seg, err := eval(expression)
	if err != nil {
		return "", -1, err
	}
	if isBlank(seg) {
		return compose(globalPrefix, localPrefix, ""), 0, nil
	}
	return compose(globalPrefix, localPrefix, seg), -1, nil
}

func compose(globalPrefix, localPrefix, suffix string) string {
	if isBlank(globalPrefix) {
		return localPrefix + suffix
	}
	return globalPrefix + ":" + localPrefix + suffix
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }
