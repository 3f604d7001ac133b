// Package detect classifies a source tree into a project kind that drives
// containerization defaults downstream.
package detect

import (
	"os"
	"path/filepath"
)

// Kind identifies how a source tree should be containerized.
type Kind string

const (
	// KindNode is a Node.js project (package.json present).
	KindNode Kind = "node"
	// KindJVM is a JVM project built with Maven or Gradle.
	KindJVM Kind = "jvm"
	// KindPython is a Python project (requirements.txt present).
	KindPython Kind = "python"
	// KindStatic is a static site, and the fallback for unrecognized trees.
	KindStatic Kind = "static"
)

// Default service ports per kind. Fixed by the kind itself; downstream
// stages consume them unchanged.
const (
	portNode   = 3000
	portJVM    = 8080
	portPython = 8000
	portStatic = 80
)

// marker pairs a filename probe with the kind it selects. Order is
// significant: the first match wins.
type marker struct {
	file string
	kind Kind
}

var markers = []marker{
	{"package.json", KindNode},
	{"pom.xml", KindJVM},
	{"build.gradle", KindJVM},
	{"requirements.txt", KindPython},
	{"index.html", KindStatic},
}

// Detect classifies the tree rooted at dir. It is total: unrecognized trees
// classify as KindStatic, never an error.
func Detect(dir string) Kind {
	for _, m := range markers {
		if fileExists(filepath.Join(dir, m.file)) {
			return m.kind
		}
	}
	return KindStatic
}

// Port returns the default container port for the kind.
func (k Kind) Port() int32 {
	switch k {
	case KindNode:
		return portNode
	case KindJVM:
		return portJVM
	case KindPython:
		return portPython
	default:
		return portStatic
	}
}

// NeedsPrebuild reports whether the kind requires an external build step
// before image construction.
func (k Kind) NeedsPrebuild() bool {
	return k == KindJVM
}

// IsValid reports whether k is one of the known kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindNode, KindJVM, KindPython, KindStatic:
		return true
	default:
		return false
	}
}

// ParseKind converts a string to a Kind, defaulting to KindStatic for
// unknown values to mirror Detect's total-function contract.
func ParseKind(s string) Kind {
	k := Kind(s)
	if !k.IsValid() {
		return KindStatic
	}
	return k
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
