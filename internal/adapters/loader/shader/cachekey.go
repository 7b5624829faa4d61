package shader

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// computeCacheKey builds the deterministic cache key for one
// permutation: a SHA-256 over the shader class name, the sorted module
// stage set, the sorted (name, content hash) include pairs, the sorted
// defines, and the vertex attribute mask and variant bits.
func computeCacheKey(className string, stages []string, includes []IncludeInfo, defines map[string]string, vertexAttribMask, variantBits uint32) string {
	sortedStages := append([]string(nil), stages...)
	sort.Strings(sortedStages)

	incParts := make([]string, 0, len(includes))
	for _, inc := range includes {
		incParts = append(incParts, inc.Name+":"+inc.ContentHash)
	}
	sort.Strings(incParts)

	defNames := make([]string, 0, len(defines))
	for name := range defines {
		defNames = append(defNames, name)
	}
	sort.Strings(defNames)
	defParts := make([]string, 0, len(defNames))
	for _, name := range defNames {
		defParts = append(defParts, name+"="+defines[name])
	}

	h := sha256.New()
	fmt.Fprintf(h, "%s\n%s\n%s\n%s\n%08x\n%08x",
		className,
		strings.Join(sortedStages, ","),
		strings.Join(incParts, ","),
		strings.Join(defParts, ","),
		vertexAttribMask,
		variantBits,
	)
	return hex.EncodeToString(h.Sum(nil))
}
