package store

import (
	"fmt"
	"log"

	"gridcourier/grid"
)

// demoBlockedEdges are linear-id pairs (id = y*9 + x + 1) for the demo city.
var demoBlockedEdges = [][2]int{
	{4, 12}, {6, 14}, {8, 16}, {9, 17}, {10, 18},
	{17, 18}, {23, 24}, {26, 27}, {27, 28}, {35, 36},
	{38, 39}, {43, 44}, {49, 50}, {50, 51}, {54, 55},
	{55, 56}, {52, 61}, {54, 63}, {72, 73},
}

// SeedDemoCity populates an empty database with the demo 9x9 city: every
// grid cell as a node, seven houses, five restaurants, one central station,
// three bots, and the blocked-edge set. A database that already has nodes is
// left untouched.
func (db *DB) SeedDemoCity(size int) error {
	nodes, err := db.ListNodes()
	if err != nil {
		return fmt.Errorf("seed: list nodes: %w", err)
	}
	if len(nodes) > 0 {
		log.Printf("store: seed skipped, %d nodes already present", len(nodes))
		return nil
	}

	houses := map[grid.Position]string{
		{X: 0, Y: 0}: "House 1",
		{X: 1, Y: 0}: "House 2",
		{X: 5, Y: 0}: "House 3",
		{X: 8, Y: 1}: "House 4",
		{X: 0, Y: 2}: "House 5",
		{X: 7, Y: 3}: "House 6",
		{X: 3, Y: 4}: "House 7",
	}
	restaurants := map[grid.Position]struct{ kind, name string }{
		{X: 2, Y: 3}: {"RAMEN", "Ramen Ichiban"},
		{X: 4, Y: 5}: {"CURRY", "Curry Palace"},
		{X: 6, Y: 2}: {"PIZZA", "Pizza Corner"},
		{X: 1, Y: 5}: {"SUSHI", "Sushi Zen"},
		{X: 7, Y: 6}: {"RAMEN", "Ramen Dragon"},
	}
	stations := map[grid.Position]string{
		{X: 4, Y: 4}: "Central Station",
	}

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			pos := grid.Position{X: x, Y: y}
			n := &Node{
				X:        x,
				Y:        y,
				NodeType: grid.ClassPlain,
				Name:     fmt.Sprintf("Node_%d_%d", x, y),
			}
			if name, ok := houses[pos]; ok {
				n.NodeType = grid.ClassHouse
				n.Name = name
			} else if r, ok := restaurants[pos]; ok {
				n.NodeType = grid.ClassRestaurant
				n.Kind = r.kind
				n.Name = r.name
			} else if name, ok := stations[pos]; ok {
				n.NodeType = grid.ClassStation
				n.Name = name
			}
			if err := db.CreateNode(n); err != nil {
				return fmt.Errorf("seed: node %s: %w", pos, err)
			}
		}
	}

	for _, pair := range demoBlockedEdges {
		if err := db.CreateBlockedEdge(pair[0], pair[1]); err != nil {
			return fmt.Errorf("seed: blocked edge %v: %w", pair, err)
		}
	}

	bots := []*Bot{
		{Name: "Bot-Alpha", X: 4, Y: 4, Status: BotIdle, Capacity: 3, Battery: 100},
		{Name: "Bot-Beta", X: 0, Y: 8, Status: BotIdle, Capacity: 3, Battery: 100},
		{Name: "Bot-Gamma", X: 8, Y: 0, Status: BotIdle, Capacity: 3, Battery: 100},
	}
	for _, b := range bots {
		if err := db.CreateBot(b); err != nil {
			return fmt.Errorf("seed: bot %s: %w", b.Name, err)
		}
	}

	log.Printf("store: seeded demo city, %d nodes, %d blocked edges, %d bots",
		size*size, len(demoBlockedEdges), len(bots))
	return nil
}
