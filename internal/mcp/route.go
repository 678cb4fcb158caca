package mcpserver

import (
	"container/heap"
	"math"
	"sort"

	"docedit/internal/domain"
)

// ═══════════════════════════════════════════════════════════════
// Orthogonal connector routing with obstacle avoidance
// ═══════════════════════════════════════════════════════════════

// routeMargin is the clearance kept around every shape.
const routeMargin = 20.0

// Side is the edge of a shape's bounding box a connector attaches to.
type Side string

const (
	SideTop    Side = "top"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
	SideRight  Side = "right"
)

func parseSide(s string) (Side, bool) {
	switch Side(s) {
	case SideTop, SideBottom, SideLeft, SideRight:
		return Side(s), true
	}
	return "", false
}

func (s Side) dir() (float64, float64) {
	switch s {
	case SideTop:
		return 0, -1
	case SideBottom:
		return 0, 1
	case SideLeft:
		return -1, 0
	}
	return 1, 0
}

// anchor is the midpoint of side on b.
func anchor(b domain.Bounds, s Side) domain.Point {
	switch s {
	case SideTop:
		return domain.Point{X: b.X + b.Width/2, Y: b.Y}
	case SideBottom:
		return domain.Point{X: b.X + b.Width/2, Y: b.Y + b.Height}
	case SideLeft:
		return domain.Point{X: b.X, Y: b.Y + b.Height/2}
	}
	return domain.Point{X: b.X + b.Width, Y: b.Y + b.Height/2}
}

// facingSides picks the sides of src and dst that face each other.
func facingSides(src, dst domain.Bounds) (Side, Side) {
	dx := (dst.X + dst.Width/2) - (src.X + src.Width/2)
	dy := (dst.Y + dst.Height/2) - (src.Y + src.Height/2)
	if math.Abs(dx) >= math.Abs(dy) {
		if dx >= 0 {
			return SideRight, SideLeft
		}
		return SideLeft, SideRight
	}
	if dy >= 0 {
		return SideBottom, SideTop
	}
	return SideTop, SideBottom
}

func inflate(r rect, m float64) rect {
	return rect{r.x - m, r.y - m, r.w + 2*m, r.h + 2*m}
}

func (r rect) containsPoint(p domain.Point, margin float64) bool {
	return p.X >= r.x-margin && p.X <= r.x+r.w+margin &&
		p.Y >= r.y-margin && p.Y <= r.y+r.h+margin
}

// crossedBy reports whether the axis-aligned segment a-b passes through
// the interior of r. Running along an edge does not count.
func (r rect) crossedBy(a, b domain.Point) bool {
	if math.Abs(a.Y-b.Y) < 0.5 {
		if a.Y <= r.y || a.Y >= r.y+r.h {
			return false
		}
		return math.Min(a.X, b.X) < r.x+r.w && math.Max(a.X, b.X) > r.x
	}
	if a.X <= r.x || a.X >= r.x+r.w {
		return false
	}
	return math.Min(a.Y, b.Y) < r.y+r.h && math.Max(a.Y, b.Y) > r.y
}

// orthoRoute returns the waypoints of a connector from src's srcSide to
// dst's dstSide, in document coordinates. Every segment is horizontal or
// vertical and no segment passes through src, dst or any obstacle.
func orthoRoute(src, dst domain.Bounds, srcSide, dstSide Side, obstacles []domain.Bounds) []domain.Point {
	start, end := anchor(src, srcSide), anchor(dst, dstSide)
	sdx, sdy := srcSide.dir()
	ddx, ddy := dstSide.dir()
	out := domain.Point{X: start.X + sdx*routeMargin, Y: start.Y + sdy*routeMargin}
	in := domain.Point{X: end.X + ddx*routeMargin, Y: end.Y + ddy*routeMargin}

	solid := []rect{rectOf(src), rectOf(dst)}
	for _, o := range obstacles {
		solid = append(solid, rectOf(o))
	}

	// Candidate lines: the clearance boundary of every shape plus the
	// two exit points, framed by an outer margin.
	xs := []float64{out.X, in.X}
	ys := []float64{out.Y, in.Y}
	for _, r := range solid {
		g := inflate(r, routeMargin)
		xs = append(xs, g.x, g.x+g.w)
		ys = append(ys, g.y, g.y+g.h)
	}
	xs = rulers(xs)
	ys = rulers(ys)

	var spots []domain.Point
	for _, x := range xs {
		for _, y := range ys {
			p := domain.Point{X: x, Y: y}
			if p == out || p == in || !insideAny(solid[:2], p) {
				spots = append(spots, p)
			}
		}
	}

	path := shortestOrthoPath(spots, out, in, solid)
	if path == nil {
		path = []domain.Point{out, {X: in.X, Y: out.Y}, in}
	}
	full := append([]domain.Point{start}, path...)
	full = append(full, end)
	return simplifyPath(full)
}

// rulers sorts and dedupes coordinates and adds midpoints between
// neighbours plus an outer frame.
func rulers(vals []float64) []float64 {
	vals = uniqSorted(vals)
	if len(vals) == 0 {
		return vals
	}
	out := []float64{vals[0] - routeMargin}
	for i, v := range vals {
		out = append(out, v)
		if i+1 < len(vals) {
			out = append(out, (v+vals[i+1])/2)
		}
	}
	return append(out, vals[len(vals)-1]+routeMargin)
}

func uniqSorted(vals []float64) []float64 {
	seen := map[int64]bool{}
	var out []float64
	for _, v := range vals {
		k := int64(math.Round(v * 100))
		if !seen[k] {
			seen[k] = true
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}

func insideAny(rs []rect, p domain.Point) bool {
	for _, r := range rs {
		if r.containsPoint(p, 1) {
			return true
		}
	}
	return false
}

// ── Dijkstra over the spot grid ────────────────────────────

type spotKey [2]int64

func keyOf(p domain.Point) spotKey {
	return spotKey{int64(math.Round(p.X * 100)), int64(math.Round(p.Y * 100))}
}

type routeEdge struct {
	to       spotKey
	w        float64
	vertical bool
}

type routeNode struct {
	p        domain.Point
	dist     float64
	prev     *routeNode
	vertical bool
	moved    bool
}

// queued is a node with the distance it had when pushed; stale entries
// are skipped on pop.
type queued struct {
	n    *routeNode
	dist float64
}

type nodeHeap []queued

func (h nodeHeap) Len() int           { return len(h) }
func (h nodeHeap) Less(i, j int) bool { return h[i].dist < h[j].dist }
func (h nodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)        { *h = append(*h, x.(queued)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}

// shortestOrthoPath links neighbouring spots on the same row or column
// and finds the cheapest path from a to b. Each bend costs extra so the
// route prefers few turns. It returns nil when b is unreachable.
func shortestOrthoPath(spots []domain.Point, a, b domain.Point, solid []rect) []domain.Point {
	cols := map[int64][]domain.Point{}
	rows := map[int64][]domain.Point{}
	for _, p := range spots {
		k := keyOf(p)
		cols[k[0]] = append(cols[k[0]], p)
		rows[k[1]] = append(rows[k[1]], p)
	}

	blocked := func(p, q domain.Point) bool {
		for _, r := range solid {
			if r.crossedBy(p, q) {
				return true
			}
		}
		return false
	}

	adj := map[spotKey][]routeEdge{}
	link := func(line []domain.Point, vertical bool) {
		sort.Slice(line, func(i, j int) bool {
			if vertical {
				return line[i].Y < line[j].Y
			}
			return line[i].X < line[j].X
		})
		for i := 0; i+1 < len(line); i++ {
			p, q := line[i], line[i+1]
			if blocked(p, q) {
				continue
			}
			w := math.Abs(q.X-p.X) + math.Abs(q.Y-p.Y)
			adj[keyOf(p)] = append(adj[keyOf(p)], routeEdge{keyOf(q), w, vertical})
			adj[keyOf(q)] = append(adj[keyOf(q)], routeEdge{keyOf(p), w, vertical})
		}
	}
	for _, col := range cols {
		link(col, true)
	}
	for _, row := range rows {
		link(row, false)
	}

	nodes := map[spotKey]*routeNode{}
	for _, p := range spots {
		nodes[keyOf(p)] = &routeNode{p: p, dist: math.Inf(1)}
	}
	from, to := nodes[keyOf(a)], nodes[keyOf(b)]
	if from == nil || to == nil {
		return nil
	}

	from.dist = 0
	done := map[spotKey]bool{}
	h := &nodeHeap{{from, 0}}
	for h.Len() > 0 {
		cur := heap.Pop(h).(queued).n
		ck := keyOf(cur.p)
		if done[ck] {
			continue
		}
		done[ck] = true
		if cur == to {
			break
		}
		for _, e := range adj[ck] {
			next := nodes[e.to]
			if next == nil || done[e.to] {
				continue
			}
			cost := cur.dist + e.w
			if cur.moved && cur.vertical != e.vertical {
				cost += (e.w + 1) * (e.w + 1)
			}
			if cost < next.dist {
				next.dist, next.prev = cost, cur
				next.vertical, next.moved = e.vertical, true
				heap.Push(h, queued{next, cost})
			}
		}
	}
	if math.IsInf(to.dist, 1) {
		return nil
	}

	var path []domain.Point
	for n := to; n != nil; n = n.prev {
		path = append([]domain.Point{n.p}, path...)
	}
	return path
}

// simplifyPath drops repeated and collinear waypoints.
func simplifyPath(pts []domain.Point) []domain.Point {
	var dedup []domain.Point
	for _, p := range pts {
		if len(dedup) > 0 {
			last := dedup[len(dedup)-1]
			if math.Abs(p.X-last.X) < 0.5 && math.Abs(p.Y-last.Y) < 0.5 {
				continue
			}
		}
		dedup = append(dedup, p)
	}
	if len(dedup) < 3 {
		return dedup
	}
	out := []domain.Point{dedup[0]}
	for i := 1; i < len(dedup)-1; i++ {
		prev, cur, next := out[len(out)-1], dedup[i], dedup[i+1]
		sameX := math.Abs(prev.X-cur.X) < 0.5 && math.Abs(cur.X-next.X) < 0.5
		sameY := math.Abs(prev.Y-cur.Y) < 0.5 && math.Abs(cur.Y-next.Y) < 0.5
		if !sameX && !sameY {
			out = append(out, cur)
		}
	}
	return append(out, dedup[len(dedup)-1])
}

// relativePoints flattens pts into line points relative to origin.
func relativePoints(pts []domain.Point, origin domain.Point) []float64 {
	out := make([]float64, 0, 2*len(pts))
	for _, p := range pts {
		out = append(out, p.X-origin.X, p.Y-origin.Y)
	}
	return out
}
