// Package preset saves and restores a whole patch: modules with their
// parameters and auxiliary state, and the connections between them.
//
// The document layout is
//
//	<ModularSynthPreset version="1" session="...">
//	  <modules>
//	    <module logicalId="1" type="vco">
//	      <params><param id="frequency" value="440"/></params>
//	      <extra>...module-defined tree...</extra>
//	    </module>
//	  </modules>
//	  <connections>
//	    <connection srcId="1" srcChan="0" dstId="output" dstChan="0"/>
//	  </connections>
//	</ModularSynthPreset>
//
// Unknown elements and attributes are ignored.
package preset

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-modular/engine/graph"
	"github.com/cwbudde/algo-modular/engine/param"
	"github.com/cwbudde/algo-modular/engine/statetree"
)

// Document tags and attributes.
const (
	TagRoot        = "ModularSynthPreset"
	TagModules     = "modules"
	TagModule      = "module"
	TagExtra       = "extra"
	TagConnections = "connections"
	TagConnection  = "connection"

	AttrVersion   = "version"
	AttrSession   = "session"
	AttrLogicalID = "logicalId"
	AttrType      = "type"
	AttrSrcID     = "srcId"
	AttrSrcChan   = "srcChan"
	AttrDstID     = "dstId"
	AttrDstChan   = "dstChan"

	// Version is the document version written by Serialize.
	Version = 1
)

var (
	// ErrBadRoot is returned when the document root is missing or mistagged.
	ErrBadRoot = errors.New("preset: invalid root element")
	// ErrMissingModules is returned when the modules section is absent.
	ErrMissingModules = errors.New("preset: missing modules section")
)

// Serialize captures the processor's patch as a tree.
func Serialize(p *graph.Processor) *statetree.Node {
	topo := p.Topology()

	root := statetree.New(TagRoot).
		SetInt(AttrVersion, Version).
		Set(AttrSession, p.SessionID().String())

	modules := root.AddNew(TagModules)
	known := make(map[graph.LogicalID]bool, len(topo.Modules))

	for _, m := range topo.Modules {
		known[m.ID] = true

		entry := modules.AddNew(TagModule).
			SetInt(AttrLogicalID, int64(m.ID)).
			Set(AttrType, m.Type)

		entry.Add(m.Module.Params().SaveTree())

		if extra := m.Module.ExtraState(); extra != nil {
			entry.AddNew(TagExtra).Add(extra.Clone())
		}
	}

	conns := root.AddNew(TagConnections)

	for _, c := range topo.Connections {
		if !known[c.Src] || (c.Dst != graph.OutputID && !known[c.Dst]) {
			continue
		}

		conns.AddNew(TagConnection).
			SetInt(AttrSrcID, int64(c.Src)).
			SetInt(AttrSrcChan, int64(c.SrcChannel)).
			Set(AttrDstID, c.Dst.String()).
			SetInt(AttrDstChan, int64(c.DstChannel))
	}

	return root
}

// LoadReport tallies what Deserialize restored and skipped.
type LoadReport struct {
	Version            int
	ModulesFound       int
	ModulesCreated     int
	ModulesSkipped     int
	ExtraStateFailed   int
	ParamsRestored     int
	ConnectionsFound   int
	ConnectionsMade    int
	ConnectionsSkipped int
	IDFloor            graph.LogicalID
}

// Deserialize replaces the processor's patch with the one in root.
//
// The graph is cleared first. A mistagged root or a missing modules section
// stops the load there and leaves the graph empty. Bad module or connection
// entries are skipped and counted. Everything is published in a single
// commit at the end.
func Deserialize(p *graph.Processor, root *statetree.Node) (LoadReport, error) {
	var report LoadReport

	log := p.Logger().With("op", "preset-load")

	err := p.Batch(func(tx *graph.Tx) error {
		tx.Clear()

		if root == nil || root.Tag != TagRoot {
			tag := "<nil>"
			if root != nil {
				tag = root.Tag
			}

			return fmt.Errorf("%w: %q", ErrBadRoot, tag)
		}

		report.Version = int(root.IntOr(AttrVersion, 0))
		if report.Version > Version {
			log.Warn("preset written by a newer version", "version", report.Version, "supported", Version)
		}

		modules := root.Child(TagModules)
		if modules == nil {
			return ErrMissingModules
		}

		entries := modules.ChildrenNamed(TagModule)
		report.ModulesFound = len(entries)

		for _, e := range entries {
			if id, err := parseID(e, AttrLogicalID); err == nil && id != graph.OutputID && id > report.IDFloor {
				report.IDFloor = id
			}
		}

		tx.ReserveIDs(report.IDFloor)

		for i, e := range entries {
			if !restoreModule(tx, e, &report) {
				report.ModulesSkipped++

				log.Warn("skipped module entry", "index", i,
					"type", e.String(AttrType, ""), "logical_id", e.String(AttrLogicalID, ""))
			}
		}

		if conns := root.Child(TagConnections); conns != nil {
			for i, c := range conns.ChildrenNamed(TagConnection) {
				report.ConnectionsFound++

				if err := restoreConnection(tx, c); err != nil {
					report.ConnectionsSkipped++

					log.Warn("skipped connection entry", "index", i, "err", err)

					continue
				}

				report.ConnectionsMade++
			}
		}

		return nil
	})
	if err != nil {
		log.Error("preset load aborted", "err", err, "modules_found", report.ModulesFound)
		return report, err
	}

	log.Info("preset loaded",
		"modules", report.ModulesCreated, "modules_skipped", report.ModulesSkipped,
		"connections", report.ConnectionsMade, "connections_skipped", report.ConnectionsSkipped)

	return report, nil
}

func restoreModule(tx *graph.Tx, e *statetree.Node, report *LoadReport) bool {
	typeName := e.String(AttrType, "")
	if typeName == "" {
		return false
	}

	saved, err := parseID(e, AttrLogicalID)
	if err != nil || saved == 0 || saved == graph.OutputID {
		return false
	}

	auto, err := tx.AddModule(typeName)
	if err != nil {
		return false
	}

	if err := tx.Reassign(auto, saved); err != nil {
		tx.RemoveModule(auto)
		return false
	}

	mod := tx.Module(saved)

	if params := e.Child(param.TagParams); params != nil {
		report.ParamsRestored += mod.Params().RestoreTree(params)
	}

	if extra := e.Child(TagExtra); extra != nil && len(extra.Children) > 0 {
		if err := tx.SetExtraState(saved, extra.Children[0]); err != nil {
			report.ExtraStateFailed++
		}
	}

	report.ModulesCreated++

	return true
}

func restoreConnection(tx *graph.Tx, c *statetree.Node) error {
	src, err := parseID(c, AttrSrcID)
	if err != nil {
		return err
	}

	dst, err := parseID(c, AttrDstID)
	if err != nil {
		return err
	}

	srcCh, err := c.Int(AttrSrcChan)
	if err != nil {
		return err
	}

	dstCh, err := c.Int(AttrDstChan)
	if err != nil {
		return err
	}

	return tx.Connect(src, int(srcCh), dst, int(dstCh))
}

func parseID(n *statetree.Node, attr string) (graph.LogicalID, error) {
	s, ok := n.Get(attr)
	if !ok {
		return 0, fmt.Errorf("preset: missing %s", attr)
	}

	id, err := graph.ParseLogicalID(s)
	if err != nil {
		return 0, fmt.Errorf("preset: bad %s %q: %w", attr, s, err)
	}

	return id, nil
}
