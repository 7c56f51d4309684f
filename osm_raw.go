package osm2act

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// RawFeature is decoded OSM object: point (tagged node) or area (closed way or multipolygon relation).
// Geometry is in EPSG:4326
type RawFeature struct {
	ID   int64
	Tags osm.Tags
	Kind GeometryKind
	Geom orb.Geometry
}

type OSMScanner interface {
	Scan() bool
	Close() error
	Err() error
	Object() osm.Object
}

// scanPass tells which kind of objects the scanner is interested in
type scanPass uint16

const (
	PASS_RELATIONS = scanPass(iota + 1)
	PASS_WAYS
	PASS_NODES
)

// wayData is way which could become an area or a part of multipolygon
type wayData struct {
	ID     osm.WayID
	Nodes  []osm.NodeID
	Tags   osm.Tags
	isArea bool
}

// relationData is multipolygon relation
type relationData struct {
	ID     osm.RelationID
	Tags   osm.Tags
	outers []osm.WayID
	inners []osm.WayID
}

// newScanner prepares scanner depending on file extension
func newScanner(ctx context.Context, file *os.File, filename string, pass scanPass) (OSMScanner, error) {
	ext := filepath.Ext(filename)
	switch ext {
	case ".osm", ".xml":
		return osmxml.New(ctx, file), nil
	case ".pbf":
		scanner := osmpbf.New(ctx, file, 4)
		scanner.SkipNodes = pass != PASS_NODES
		scanner.SkipWays = pass != PASS_WAYS
		scanner.SkipRelations = pass != PASS_RELATIONS
		return scanner, nil
	default:
		return nil, fmt.Errorf("File extension '%s' for file '%s' is not handled yet", ext, filename)
	}
}

// scanFile runs single pass over the file
func scanFile(file *os.File, filename string, pass scanPass, fn func(obj osm.Object) error) error {
	_, err := file.Seek(0, io.SeekStart)
	if err != nil {
		return errors.Wrap(err, "Can't seek file to start")
	}
	scanner, err := newScanner(context.Background(), file, filename, pass)
	if err != nil {
		return err
	}
	defer scanner.Close()
	for scanner.Scan() {
		if err := fn(scanner.Object()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// ReadOSM decodes OSM XML or PBF file and calls fn for every tagged node (point feature)
// and every closed way or multipolygon relation (area feature).
// Objects with unresolvable geometry are logged and skipped
func ReadOSM(filename string, logger *zap.Logger, fn func(RawFeature) error) error {
	logger.Info("Opening file", zap.String("file", filename))
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "File open")
	}
	defer file.Close()

	/* Process relations */
	st := time.Now()
	relations := []*relationData{}
	waysNeeded := make(map[osm.WayID]struct{})
	err = scanFile(file, filename, PASS_RELATIONS, func(obj osm.Object) error {
		relation, ok := obj.(*osm.Relation)
		if !ok {
			return nil
		}
		if _, ok := multipolygonTypes[relation.Tags.Find("type")]; !ok {
			return nil
		}
		prepared := &relationData{
			ID:   relation.ID,
			Tags: make(osm.Tags, len(relation.Tags)),
		}
		copy(prepared.Tags, relation.Tags)
		for _, member := range relation.Members {
			if member.Type != osm.TypeWay {
				continue
			}
			wayID := osm.WayID(member.Ref)
			switch member.Role {
			case "inner":
				prepared.inners = append(prepared.inners, wayID)
			default:
				prepared.outers = append(prepared.outers, wayID)
			}
			waysNeeded[wayID] = struct{}{}
		}
		relations = append(relations, prepared)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "Scanner error on relations")
	}
	logger.Info("Relations processed", zap.Int("multipolygons", len(relations)), zap.Duration("took", time.Since(st)))

	/* Process ways */
	st = time.Now()
	ways := make(map[osm.WayID]*wayData)
	wayOrder := []osm.WayID{}
	nodesSeen := make(map[osm.NodeID]struct{})
	err = scanFile(file, filename, PASS_WAYS, func(obj osm.Object) error {
		way, ok := obj.(*osm.Way)
		if !ok {
			return nil
		}
		nodeIDs := way.Nodes.NodeIDs()
		closed := len(nodeIDs) > 1 && nodeIDs[0] == nodeIDs[len(nodeIDs)-1]
		_, areaNegative := areaNegativeValues[way.Tags.Find("area")]
		isArea := closed && !areaNegative && len(way.Tags) > 0
		_, isMember := waysNeeded[way.ID]
		if !isArea && !isMember {
			return nil
		}
		prepared := &wayData{
			ID:     way.ID,
			Nodes:  nodeIDs,
			Tags:   make(osm.Tags, len(way.Tags)),
			isArea: isArea,
		}
		copy(prepared.Tags, way.Tags)
		for _, nodeID := range nodeIDs {
			nodesSeen[nodeID] = struct{}{}
		}
		ways[way.ID] = prepared
		wayOrder = append(wayOrder, way.ID)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "Scanner error on ways")
	}
	logger.Info("Ways processed", zap.Int("ways", len(ways)), zap.Duration("took", time.Since(st)))

	/* Process nodes */
	st = time.Now()
	nodes := make(map[osm.NodeID]orb.Point, len(nodesSeen))
	pointsNum := 0
	err = scanFile(file, filename, PASS_NODES, func(obj osm.Object) error {
		node, ok := obj.(*osm.Node)
		if !ok {
			return nil
		}
		if _, ok := nodesSeen[node.ID]; ok {
			nodes[node.ID] = node.Point()
		}
		if len(node.Tags) == 0 {
			return nil
		}
		pointsNum++
		return fn(RawFeature{
			ID:   int64(node.ID),
			Tags: node.Tags,
			Kind: GEOMETRY_POINT,
			Geom: node.Point(),
		})
	})
	if err != nil {
		return errors.Wrap(err, "Scanner error on nodes")
	}
	logger.Info("Nodes processed", zap.Int("tagged", pointsNum), zap.Int("referenced", len(nodes)), zap.Duration("took", time.Since(st)))

	/* Build areas */
	st = time.Now()
	areasNum := 0
	for _, wayID := range wayOrder {
		way := ways[wayID]
		if !way.isArea {
			continue
		}
		ring, err := ringFromNodes(way.Nodes, nodes)
		if err != nil {
			logger.Warn("Can't build area from way", zap.Int64("osm_id", int64(way.ID)), zap.Error(err))
			continue
		}
		areasNum++
		err = fn(RawFeature{
			ID:   int64(way.ID),
			Tags: way.Tags,
			Kind: GEOMETRY_AREA,
			Geom: orb.Polygon{ring},
		})
		if err != nil {
			return err
		}
	}
	for _, relation := range relations {
		geom, err := multipolygonFromRelation(relation, ways, nodes)
		if err != nil {
			logger.Warn("Can't build area from relation", zap.Int64("osm_id", int64(relation.ID)), zap.Error(err))
			continue
		}
		areasNum++
		err = fn(RawFeature{
			ID:   int64(relation.ID),
			Tags: relation.Tags,
			Kind: GEOMETRY_AREA,
			Geom: geom,
		})
		if err != nil {
			return err
		}
	}
	logger.Info("Areas built", zap.Int("areas", areasNum), zap.Duration("took", time.Since(st)))
	return nil
}

// ringFromNodes converts node references to ring
func ringFromNodes(nodeIDs []osm.NodeID, nodes map[osm.NodeID]orb.Point) (orb.Ring, error) {
	ring := make(orb.Ring, 0, len(nodeIDs))
	for _, nodeID := range nodeIDs {
		pt, ok := nodes[nodeID]
		if !ok {
			return nil, fmt.Errorf("Missing node with id: %d", nodeID)
		}
		ring = append(ring, pt)
	}
	return ring, nil
}

// assembleRings joins ways (as node sequences) into closed rings. Ways could be reversed
func assembleRings(ways [][]osm.NodeID) ([][]osm.NodeID, error) {
	remaining := make([][]osm.NodeID, 0, len(ways))
	for _, way := range ways {
		if len(way) > 1 {
			remaining = append(remaining, way)
		}
	}
	rings := [][]osm.NodeID{}
	for len(remaining) > 0 {
		current := make([]osm.NodeID, len(remaining[0]))
		copy(current, remaining[0])
		remaining = remaining[1:]
		for current[0] != current[len(current)-1] {
			last := current[len(current)-1]
			found := -1
			for i, way := range remaining {
				if way[0] == last {
					current = append(current, way[1:]...)
					found = i
					break
				}
				if way[len(way)-1] == last {
					for j := len(way) - 2; j >= 0; j-- {
						current = append(current, way[j])
					}
					found = i
					break
				}
			}
			if found < 0 {
				return nil, fmt.Errorf("Ring can't be closed at node %d", last)
			}
			remaining = append(remaining[:found], remaining[found+1:]...)
		}
		rings = append(rings, current)
	}
	return rings, nil
}

// multipolygonFromRelation builds Polygon (single outer ring) or MultiPolygon from relation members
func multipolygonFromRelation(relation *relationData, ways map[osm.WayID]*wayData, nodes map[osm.NodeID]orb.Point) (orb.Geometry, error) {
	collect := func(ids []osm.WayID) ([]orb.Ring, error) {
		parts := make([][]osm.NodeID, 0, len(ids))
		for _, id := range ids {
			way, ok := ways[id]
			if !ok {
				return nil, fmt.Errorf("Missing way with id: %d", id)
			}
			parts = append(parts, way.Nodes)
		}
		assembled, err := assembleRings(parts)
		if err != nil {
			return nil, err
		}
		rings := make([]orb.Ring, 0, len(assembled))
		for _, nodeIDs := range assembled {
			ring, err := ringFromNodes(nodeIDs, nodes)
			if err != nil {
				return nil, err
			}
			rings = append(rings, ring)
		}
		return rings, nil
	}
	outers, err := collect(relation.outers)
	if err != nil {
		return nil, errors.Wrap(err, "Outer rings")
	}
	if len(outers) == 0 {
		return nil, fmt.Errorf("No outer rings")
	}
	inners, err := collect(relation.inners)
	if err != nil {
		return nil, errors.Wrap(err, "Inner rings")
	}
	polygons := make(orb.MultiPolygon, len(outers))
	for i := range outers {
		polygons[i] = orb.Polygon{outers[i]}
	}
	for _, inner := range inners {
		placed := false
		for i := range polygons {
			if planar.RingContains(polygons[i][0], inner[0]) {
				polygons[i] = append(polygons[i], inner)
				placed = true
				break
			}
		}
		if !placed {
			return nil, fmt.Errorf("Inner ring is outside of every outer ring")
		}
	}
	if len(polygons) == 1 {
		return polygons[0], nil
	}
	return polygons, nil
}
