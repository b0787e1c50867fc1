package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

func computeFingerprint(g *Graph) string {
	ids := append([]string(nil), g.order...)
	sort.Strings(ids)

	var edges []string
	for _, id := range ids {
		for _, child := range g.properties[id].children {
			edges = append(edges, id+">"+child)
		}
	}
	sort.Strings(edges)

	h := sha256.New()
	h.Write([]byte(strings.Join(ids, "\n")))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(edges, "\n")))
	return hex.EncodeToString(h.Sum(nil))
}
