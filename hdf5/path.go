package hdf5

import (
	"fmt"
	"strings"
)

// ParseAttrPath splits an attribute path of the form /object/path@name into
// the object path and the attribute name. A missing leading slash is added
// and "/@name" names an attribute of the root group.
func ParseAttrPath(p string) (objectPath, attrName string, err error) {
	if p == "" {
		return "", "", fmt.Errorf("%w: empty attribute path", ErrInvalidPath)
	}
	at := strings.LastIndexByte(p, '@')
	if at < 0 {
		return "", "", fmt.Errorf("%w: no '@' in %q", ErrInvalidPath, p)
	}
	objectPath, attrName = p[:at], p[at+1:]
	if attrName == "" {
		return "", "", fmt.Errorf("%w: empty attribute name in %q", ErrInvalidPath, p)
	}
	return CleanPath(objectPath), attrName, nil
}

// JoinAttrPath is the inverse of ParseAttrPath.
func JoinAttrPath(objectPath, attrName string) string {
	p := CleanPath(objectPath)
	if p == "/" {
		return "/@" + attrName
	}
	return p + "@" + attrName
}

// SplitPath returns the non-empty components of p.
func SplitPath(p string) []string {
	var parts []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

// CleanPath returns p as an absolute path with no empty components and no
// trailing slash.
func CleanPath(p string) string {
	return "/" + strings.Join(SplitPath(p), "/")
}
