package store

import (
	"fmt"
	"time"

	"gridcourier/grid"
)

type Node struct {
	ID        int64          `json:"id"`
	X         int            `json:"x"`
	Y         int            `json:"y"`
	NodeType  grid.NodeClass `json:"node_type"`
	Kind      string         `json:"kind"`
	Name      string         `json:"name"`
	CreatedAt time.Time      `json:"created_at"`
}

func (n *Node) Position() grid.Position { return grid.Position{X: n.X, Y: n.Y} }

type BlockedEdge struct {
	ID    int64 `json:"id"`
	NodeA int   `json:"node_a"`
	NodeB int   `json:"node_b"`
}

const nodeSelectCols = `id, x, y, node_type, kind, name, created_at`

func scanNode(row interface{ Scan(...any) error }) (*Node, error) {
	var n Node
	var createdAt any
	err := row.Scan(&n.ID, &n.X, &n.Y, &n.NodeType, &n.Kind, &n.Name, &createdAt)
	if err != nil {
		return nil, err
	}
	n.CreatedAt = parseTime(createdAt)
	return &n, nil
}

func (db *DB) CreateNode(n *Node) error {
	result, err := db.Exec(db.Q(`INSERT INTO nodes (x, y, node_type, kind, name) VALUES (?, ?, ?, ?, ?)`),
		n.X, n.Y, n.NodeType, n.Kind, n.Name)
	if err != nil {
		return fmt.Errorf("create node: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("create node last id: %w", err)
	}
	n.ID = id
	return nil
}

func (db *DB) GetNode(id int64) (*Node, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM nodes WHERE id=?`, nodeSelectCols)), id)
	return scanNode(row)
}

func (db *DB) GetNodeAt(x, y int) (*Node, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM nodes WHERE x=? AND y=?`, nodeSelectCols)), x, y)
	return scanNode(row)
}

func (db *DB) ListNodes() ([]*Node, error) {
	rows, err := db.Query(fmt.Sprintf(`SELECT %s FROM nodes ORDER BY id`, nodeSelectCols))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var nodes []*Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (db *DB) ListNodesByType(nodeType grid.NodeClass) ([]*Node, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM nodes WHERE node_type=? ORDER BY id`, nodeSelectCols)), nodeType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var nodes []*Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (db *DB) DeleteNode(id int64) error {
	_, err := db.Exec(db.Q(`DELETE FROM nodes WHERE id=?`), id)
	return err
}

func (db *DB) CreateBlockedEdge(a, b int) error {
	_, err := db.Exec(db.Q(`INSERT INTO blocked_edges (node_a, node_b) VALUES (?, ?)`), a, b)
	return err
}

func (db *DB) ListBlockedEdges() ([]*BlockedEdge, error) {
	rows, err := db.Query(`SELECT id, node_a, node_b FROM blocked_edges ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var edges []*BlockedEdge
	for rows.Next() {
		var e BlockedEdge
		if err := rows.Scan(&e.ID, &e.NodeA, &e.NodeB); err != nil {
			return nil, err
		}
		edges = append(edges, &e)
	}
	return edges, rows.Err()
}

func (db *DB) DeleteBlockedEdge(id int64) error {
	_, err := db.Exec(db.Q(`DELETE FROM blocked_edges WHERE id=?`), id)
	return err
}

// LoadGraph materializes the persisted topology into an immutable grid
// snapshot. Call again after editing nodes or blocked edges.
func (db *DB) LoadGraph(size int) (*grid.Graph, error) {
	nodes, err := db.ListNodes()
	if err != nil {
		return nil, fmt.Errorf("load graph nodes: %w", err)
	}
	edges, err := db.ListBlockedEdges()
	if err != nil {
		return nil, fmt.Errorf("load graph blocked edges: %w", err)
	}
	cells := make([]grid.Cell, 0, len(nodes))
	for _, n := range nodes {
		cells = append(cells, grid.Cell{Pos: n.Position(), Class: n.NodeType, Kind: n.Kind, Name: n.Name})
	}
	pairs := make([][2]int, 0, len(edges))
	for _, e := range edges {
		pairs = append(pairs, [2]int{e.NodeA, e.NodeB})
	}
	return grid.New(size, cells, pairs)
}
