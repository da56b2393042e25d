package routing

import (
	"container/heap"

	"pedsim/internal/geometry"
)

// edge is one hop of the door graph: a passable opening between two
// subrooms, weighted by the straight-line distance between their
// centroids. transition is nil when the opening is a Crossing rather than
// a Transition (crossings have no door state to track).
type edge struct {
	from, to   int
	transition *geometry.Transition
	crossing   *geometry.Crossing
	weight     float64
}

func (e edge) line() geometry.Segment {
	if e.transition != nil {
		return e.transition.Line
	}
	return e.crossing.Line
}

// rebuild walks every transition and crossing in the building and
// (re)builds the subroom adjacency graph. CLOSE transitions are omitted:
// a fully closed door behaves like a wall and routes must go around it.
// TEMP_CLOSE transitions remain in the graph so an agent can still be
// routed up to the door and wait there for it to reopen.
func (e *Engine) rebuild() {
	graph := map[int][]edge{}
	addEdge := func(a, b int, centroidA, centroidB geometry.Point, tr *geometry.Transition, cr *geometry.Crossing) {
		w := centroidA.Distance(centroidB)
		graph[a] = append(graph[a], edge{from: a, to: b, transition: tr, crossing: cr, weight: w})
		graph[b] = append(graph[b], edge{from: b, to: a, transition: tr, crossing: cr, weight: w})
	}

	transitions, crossings := e.building.AllTransitionsAndCrossings()
	for _, t := range transitions {
		if t.State == geometry.StateClose {
			continue
		}
		if t.SubRoom1 == geometry.NoSubRoom || t.SubRoom2 == geometry.NoSubRoom {
			continue
		}
		sr1, ok1 := e.building.SubRoom(t.SubRoom1)
		sr2, ok2 := e.building.SubRoom(t.SubRoom2)
		if !ok1 || !ok2 {
			continue
		}
		addEdge(t.SubRoom1, t.SubRoom2, sr1.Centroid(), sr2.Centroid(), t, nil)
	}
	for _, cr := range crossings {
		if cr.SubRoom1 == geometry.NoSubRoom || cr.SubRoom2 == geometry.NoSubRoom {
			continue
		}
		sr1, ok1 := e.building.SubRoom(cr.SubRoom1)
		sr2, ok2 := e.building.SubRoom(cr.SubRoom2)
		if !ok1 || !ok2 {
			continue
		}
		addEdge(cr.SubRoom1, cr.SubRoom2, sr1.Centroid(), sr2.Centroid(), nil, cr)
	}
	e.graph = graph
}

// pqItem and priorityQueue implement a binary min-heap over subrooms reached
// during Dijkstra's relaxation, ordered by cumulative distance.
type pqItem struct {
	subroom int
	dist    float64
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// shortestPath runs Dijkstra over the subroom graph and returns the
// ordered sequence of edges to walk from "from" to "to". An empty result
// means "to" is unreachable given the currently passable doors, which the
// caller treats as FINAL_DEST_OUT / waiting.
func (e *Engine) shortestPath(from, to int) []edge {
	if from == to {
		return nil
	}
	dist := map[int]float64{from: 0}
	prevEdge := map[int]edge{}
	visited := map[int]bool{}

	pq := &priorityQueue{{subroom: from, dist: 0}}
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pqItem)
		if visited[cur.subroom] {
			continue
		}
		visited[cur.subroom] = true
		if cur.subroom == to {
			break
		}
		for _, ed := range e.graph[cur.subroom] {
			nd := cur.dist + ed.weight
			if d, ok := dist[ed.to]; !ok || nd < d {
				dist[ed.to] = nd
				prevEdge[ed.to] = ed
				heap.Push(pq, pqItem{subroom: ed.to, dist: nd})
			}
		}
	}

	if _, ok := dist[to]; !ok {
		return nil
	}
	var path []edge
	for cur := to; cur != from; {
		ed, ok := prevEdge[cur]
		if !ok {
			return nil
		}
		path = append([]edge{ed}, path...)
		cur = ed.from
	}
	return path
}
