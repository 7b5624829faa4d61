package shader

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kestrelengine/assetpipe/internal/domain/asset"
)

// IncludeInfo is one resolved #include: its symbolic name and a hash of
// its content, the pair the cache key is built from.
type IncludeInfo struct {
	Name        string
	ContentHash string
}

// ReadFunc abstracts include-file I/O against the virtual shader root.
type ReadFunc func(path string) ([]byte, error)

var includeDirective = regexp.MustCompile(`(?m)^\s*#include\s+"([^"]+)"\s*$`)

// IncludeResolver recursively expands #include "name" directives against
// a virtual shader root, recording the transitive include set.
type IncludeResolver struct {
	root string
	read ReadFunc
}

func NewIncludeResolver(root string, read ReadFunc) *IncludeResolver {
	return &IncludeResolver{root: root, read: read}
}

// Resolve expands every #include in source, returning the fully expanded
// text and the deduplicated set of includes encountered (in first-seen
// order).
func (r *IncludeResolver) Resolve(source string) (string, []IncludeInfo, error) {
	chain := map[string]bool{}
	seenInfo := map[string]bool{}
	var all []IncludeInfo
	out, err := r.resolve(source, chain, seenInfo, &all)
	return out, all, err
}

// resolve expands source's includes, tracking chain as the set of names
// currently open on this recursion path; an include already in chain is
// a cycle and is silently skipped. seenInfo dedups the reported
// include-set entries across branches that legitimately include the
// same file more than once.
func (r *IncludeResolver) resolve(source string, chain, seenInfo map[string]bool, all *[]IncludeInfo) (string, error) {
	var out strings.Builder
	for _, line := range strings.Split(source, "\n") {
		m := includeDirective.FindStringSubmatch(line)
		if m == nil {
			out.WriteString(line)
			out.WriteByte('\n')
			continue
		}

		name := m[1]
		if chain[name] {
			continue
		}

		data, err := r.read(filepath.Join(r.root, name))
		if err != nil {
			return "", asset.New(asset.StatusCodeFailedRead, "include not found: "+name)
		}

		if !seenInfo[name] {
			sum := sha256.Sum256(data)
			*all = append(*all, IncludeInfo{Name: name, ContentHash: hex.EncodeToString(sum[:])})
			seenInfo[name] = true
		}

		chain[name] = true
		nested, err := r.resolve(string(data), chain, seenInfo, all)
		delete(chain, name)
		if err != nil {
			return "", err
		}
		out.WriteString(nested)
	}
	return out.String(), nil
}
