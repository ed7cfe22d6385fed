package cvrp

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// Fingerprint computes a stable content hash of the instance, suitable as a
// cache/store key. Mirrors the teacher's pkg/cache.GraphHash: sort every
// collection by key, build a canonical byte string, sha256 it.
func (in *Instance) Fingerprint() string {
	data := in.canonicalBytes()
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}

func (in *Instance) canonicalBytes() []byte {
	var buf []byte

	nodeIdx := make([]int, len(in.Nodes))
	for i, n := range in.Nodes {
		nodeIdx[i] = n.Idx
	}
	sort.Ints(nodeIdx)
	for _, idx := range nodeIdx {
		n := in.Node(idx)
		buf = append(buf, fmt.Sprintf("n:%d:%d:%.6f:%.6f:%.6f;", n.Idx, n.Type, n.Open, n.Close, n.ServiceTime)...)
	}

	arcKeys := make([]ArcKey, 0, len(in.Arcs))
	for k := range in.Arcs {
		arcKeys = append(arcKeys, k)
	}
	sort.Slice(arcKeys, func(i, j int) bool {
		if arcKeys[i].From != arcKeys[j].From {
			return arcKeys[i].From < arcKeys[j].From
		}
		return arcKeys[i].To < arcKeys[j].To
	})
	for _, k := range arcKeys {
		a := in.Arcs[k]
		buf = append(buf, fmt.Sprintf("a:%d:%d:%.6f:%.6f;", a.From, a.To, a.TravelTime, a.Cost)...)
	}

	orderIdx := make([]int, 0, len(in.Orders))
	for k := range in.Orders {
		orderIdx = append(orderIdx, k)
	}
	sort.Ints(orderIdx)
	for _, idx := range orderIdx {
		buf = append(buf, fmt.Sprintf("o:%d:%.6f;", idx, in.Orders[idx].Weight)...)
	}

	p := in.Parameters
	buf = append(buf, fmt.Sprintf("p:%.2f:%d:%s:%.4f:%.4f:%.4f:%s:%.4f:%d;",
		p.TruckCapacity, p.FleetSize, p.MaxSolveTime, p.ColumnGenerationSolveRatio,
		p.MasterProblemMIPGap, p.PricingProblemMIPGap, p.PricingProblemTimeLimit,
		p.MinColumnGenerationProgress, p.MaxCountNoImprovements)...)

	return buf
}
